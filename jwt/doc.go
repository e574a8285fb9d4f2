// Package jwt manages access-token issuance and verification for the admin
// back-office, using configured signing keys and strict validation semantics.
package jwt
