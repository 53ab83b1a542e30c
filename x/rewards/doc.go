/*
Package rewards implements owner curated reward pools paying out escrowed
funds to top token holders.

A pool fixes its payout policy at creation: an equal split pays every
registry entry the same cut, a proportional split weights the cut by the
balance reported for the entry. The pool owner replaces the holder registry
wholesale and every replacement bumps the registry version, so a
distribution pass can pin the registry it inspected. Funds sit in a vault
under a derived address only the reward handlers exercise. Distribution is
permissionless: anyone naming the current registry version and matching
recipients may trigger a pass. All remainders of the integer share math stay
in the vault.
*/
package rewards
