// Package factory builds pluggable modules, such as metrics sinks, from
// configuration entries of the form {type, conf}. Each module type registers
// a Factory that decodes its conf with Decode:
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//		var c struct {
//			URL string `json:"url"`
//		}
//		if err := factory.Decode(conf, &c); err != nil {
//			return nil, err
//		}
//		return newInflux(c.URL), nil
//	})
package factory
