package flows

import (
	"github.com/MrEthical07/tokenAuth/jwt"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureDecode
	ValidateFailureSubject
)

// ValidateResult carries either decoded claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

// ValidateDeps captures validation dependencies.
type ValidateDeps struct {
	Decode func(string) (*jwt.Claims, error)
}

// RunValidate decodes tokenStr. It is stateless: the revocation set is not consulted
// and the token kind is not checked.
func RunValidate(tokenStr string, deps ValidateDeps) ValidateResult {
	claims, err := deps.Decode(tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}
	if claims.Subject == "" {
		return ValidateResult{Failure: ValidateFailureSubject}
	}
	return ValidateResult{Claims: claims}
}
