// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results turns decrypted tallies into ranked results and checks a
voter's receipt against the tallied ballots.

# Aggregation

Aggregate accepts either raw shape produced by the combination step (the
per-choice map or the fallback choice list) and always returns
RankedResults:

	ranked := results.Aggregate(combined.Tally, e.ChoiceTitles())

Choices are ordered by votes descending; equal counts keep ballot order and
share a rank (1, 1, 3). Percentages are recomputed from the vote counts.

# Verification

Verify classifies a (tracking code, hash) pair against tally records:

	verified   tracking code found, hash matches initial or decrypted hash
	corrupted  tracking code found, hash differs
	not_found  no record with that tracking code
	error      malformed input (nil list, non-array JSON, empty code/hash)

Verifier.Check prefers local records and only asks the ledger when none
are available.
*/
package results
