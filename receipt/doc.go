// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package receipt builds and exports vote receipts and ballot-info documents.

A receipt is what a voter keeps after casting: the tracking code and ballot
hash they later check against the published tally. Each receipt carries a
random ID and a Keccak-256 fingerprint over its canonical fields, so a copy
that was edited after export can be detected with Check.

# Formats

Receipts and ballot-info documents are written as indented JSON or as a
plain text block suitable for printing.
*/
package receipt
