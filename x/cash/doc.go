/*
Package cash keeps track of the native funds of every account on the chain.

Each account owns at most one wallet holding a single-currency balance.
The Controller moves funds between wallets with overflow and underflow
checked arithmetic, and the SendMsg handler exposes a signature gated
transfer. Other extensions embed the Controller to settle their own
payouts.
*/
package cash
