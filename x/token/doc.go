/*
Package token implements a minimal fungible token ledger.

Tokens are registered under their ticker by the configuration owner. Every
account holds tokens in per-ticker holding accounts stored under an address
derived from the owner and the ticker, so holdings can be located and
inspected knowing only the account address. The Controller moves balances
with checked arithmetic and is the only write path used by handlers and by
other extensions paying out token rewards.
*/
package token
