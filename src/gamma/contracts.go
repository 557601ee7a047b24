package gamma

import "qppf/src/model"

// ContractsFromAlerts converts raw flow alerts into options chain rows for
// the estimator. Alerts are tolerant inputs: missing open interest falls
// back to traded volume, and absent premium just leaves IV resolution to the
// default path. Rows without a usable strike are dropped.
func ContractsFromAlerts(alerts []model.FlowAlert) []model.OptionContract {
	out := make([]model.OptionContract, 0, len(alerts))

	for _, a := range alerts {
		if a.Strike <= 0 {
			continue
		}

		c := model.OptionContract{
			Symbol:       a.Symbol,
			Strike:       a.Strike,
			Expiry:       a.Expiry,
			Type:         a.OptionType,
			OpenInterest: a.OpenInterest,
		}
		if c.OpenInterest <= 0 && a.Volume > 0 {
			c.OpenInterest = a.Volume
		}
		if a.Premium > 0 {
			// alert premium is the whole trade in dollars; the chain row
			// wants the per-share option price
			p := a.Premium
			if a.Volume > 0 {
				p = a.Premium / (float64(a.Volume) * ContractSize)
			}
			c.Premium = &p
		}
		if a.Volume > 0 {
			v := a.Volume
			c.Volume = &v
		}

		out = append(out, c)
	}

	return out
}
