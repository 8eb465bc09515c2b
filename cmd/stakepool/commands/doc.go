// Package commands defines the stakepool CLI and wires dependencies for subcommands.
//
// Commands
//
//   - deposit-sol       Stake SOL into a pool for pool tokens
//   - withdraw-sol      Burn pool tokens for SOL from the reserve
//   - deposit-stake     Deposit a delegated stake account
//   - withdraw-stake    Burn pool tokens for a split stake account
//   - add-validator     Add a validator to the pool (staker only)
//   - remove-validator  Remove a validator from the pool (staker only)
//   - update-pool       Refresh validator balances and pool totals
//   - pool show         Display a pool descriptor through the display cache
//   - pool snapshots    List recorded snapshots of a pool
//   - history           List journaled operations
//   - serve             Run the HTTP API with health, metrics and status
//   - migrate           Apply PostgreSQL and ClickHouse migrations
//
// Settings come from flags, which default to the environment and an optional .env file.
// Every operation is journaled with its classified result; the journal lives in
// PostgreSQL when POSTGRES_DSN is set and in memory otherwise.
package commands
