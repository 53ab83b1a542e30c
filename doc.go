/*

Package drip defines the interfaces used throughout the reward
distribution chain: storage, transactions, handlers, conditions and
abci glue. Look into this package for a brief overview of the design
decisions made around interfaces and extension building blocks. The
actual functionality lives in the extensions under x/ and is wired
together in cmd/dripd.

*/

package drip
