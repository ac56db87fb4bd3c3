// Package validation collects field errors into a single AppError.
//
// Programmatic checks accumulate on a Validator:
//
//	v := validation.New()
//	v.Required("collection", cfg.Collection).Range("top_k", cfg.TopK, 1, 50)
//	if err := v.Validate(); err != nil { ... }
//
// Struct checks use validator/v10 tags through Struct.
package validation
