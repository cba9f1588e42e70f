// Package corpus loads the curated UI pattern corpus from JSON, YAML or TOML
// files and normalizes loosely-typed entries into types.Pattern values.
//
// A corpus file is either a list of patterns or an object with a "patterns"
// list:
//
//	patterns:
//	  - id: button
//	    name: Button
//	    category: form
//	    metadata:
//	      props: [variant, size, {name: disabled, type: boolean}]
//	      variants: [primary, secondary]
//	      a11y:
//	        features: [Keyboard navigation support]
//
// Props may also be a name to type map. The loaded slice is treated as
// immutable by every consumer.
package corpus
