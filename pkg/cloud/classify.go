package cloud

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// credentialErrorCodes are provider API error codes that indicate expired or
// invalid credentials rather than a genuine resource or transport problem.
var credentialErrorCodes = map[string]bool{
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
	"RequestExpired":              true,
	"InvalidClientTokenId":        true,
	"UnrecognizedClientException": true,
	"AuthFailure":                 true,
	"SignatureDoesNotMatch":       true,
}

// credentialErrorSubstrings is the free-text fallback for failures that only
// surface as messages (the credential chain itself, proxied errors). Matching
// is case-insensitive. Kept in one place so the heuristic stays testable.
var credentialErrorSubstrings = []string{
	"expiredtoken",
	"security token included in the request is expired",
	"security token included in the request is invalid",
	"failed to refresh cached credentials",
	"no ec2 imds role found",
	"static credentials are empty",
	"token has expired",
}

// IsCredentialError reports whether err looks like an expired/invalid
// credential failure. Such failures are treated like a failed auth probe for
// remediation purposes even when they surface later in the pipeline.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && credentialErrorCodes[apiErr.ErrorCode()] {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range credentialErrorSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
