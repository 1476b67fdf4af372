package auth

import "time"

// NonceRequest is the payload for requesting a sign-in challenge.
type NonceRequest struct {
	Address string `json:"address"`
}

// NonceResponse carries the issued challenge back to the wallet.
type NonceResponse struct {
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyRequest is the payload for proving wallet ownership. The
// signature must be an EIP-191 personal_sign over the raw nonce string.
type VerifyRequest struct {
	Address   string `json:"address"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

// VerifyResponse carries the session token issued after verification.
type VerifyResponse struct {
	Token string `json:"token"`
}

// ValidateResponse reports the wallet address bound to a valid session.
type ValidateResponse struct {
	WalletAddress string `json:"walletAddress"`
}
