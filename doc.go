// Package autorag implements the account and integration core of the
// AutoRAG backend: local accounts with email verification, stateless
// session tokens, and the repositories backing them. Federated sign in,
// outbound notifications, and the retrieval engine proxy live in their
// own subpackages.
package autorag
