// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides session token generation and privacy-preserving tags.

# Session Tokens

Session tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateSessionToken()

Tokens are URL-safe base64 encoded without padding and travel in the
X-Session-Token header. ValidateSessionToken rejects malformed tokens before
any lookup.

# Session Tags

Tags are short base62 HMACs of the backend user token:

	tag := auth.SessionTag(userToken, salt)

Logs and the local journal carry the tag, never the token. With a stable
salt the same user maps to the same tag in every session, which is how a
pending cast is found again after the session that made it is gone.

# ID Generation

Random hex IDs, used for the per-process salt:

	salt, err := auth.GenerateID(32)

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
