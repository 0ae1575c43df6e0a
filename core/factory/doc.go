// Package factory builds pluggable modules (decision log backends, metrics
// sinks) from configuration. A module is a type name plus a map of raw
// settings; each registered factory decodes the settings into its own
// struct.
//
//	reg := factory.NewRegistry[logging.LogStore]()
//	_ = reg.Register("jsonl", func(conf map[string]any) (logging.LogStore, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return logging.NewJSONLStore(c.Path)
//	})
//	store, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "decisions.jsonl"}})
package factory
