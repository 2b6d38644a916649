package config

const sample = `# Holdings manifest.
#
# Every account needs exactly one statement. Activity reports dated before the
# statement are skipped, later ones are merged in date order.

# Days per year used to annualise interest figures.
days_per_year: 365

# Accounts processed at the same time.
concurrency: 4

# ISO 4217 code used to format amounts.
currency: USD

accounts:
  - name: brokerage
    number: Z12345678
    # Reject symbols that are not aliased or already held.
    strict_aliases: false
    aliases:
      TUP: TUPBQ
    documents:
      - path: statements/Statement01312024.csv
        kind: statement
      - path: activity/History_for_Account_Z12345678.csv
        kind: activity
`

// Sample returns the manifest written by the init command.
func Sample() []byte {
	return []byte(sample)
}
