// Package secret resolves secret references in configuration values, so
// passwords need not sit in plain text in storefront.yaml or the
// environment.
//
// A value is first expanded strictly against the environment (see
// ExpandEnvStrict). A value of the form
//
//	secretref:<provider>:<ref>
//
// is then replaced by what the named provider returns. References may also
// appear inline, as in "Bearer secretref:file:/run/secrets/token".
//
// Built-in providers:
//   - env:  secretref:env:SHOPPER_PASSWORD reads an environment variable
//   - file: secretref:file:/run/secrets/pw reads a file, minus the
//     trailing newline
package secret
