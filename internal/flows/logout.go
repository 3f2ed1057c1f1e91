package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/roleAuth/identity"
)

// LogoutResult reports the outcome of a recruiter logout.
type LogoutResult struct {
	Failure FailureKind
	Err     error
}

// RunRecruiterLogout clears the stored renewal token with one write. Any
// renewal token issued before this call stops verifying afterwards.
func RunRecruiterLogout(ctx context.Context, identityID string, deps Deps) LogoutResult {
	if err := deps.Store.ClearRenewalToken(ctx, identityID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return LogoutResult{Failure: FailureIdentityInvalid, Err: err}
		}
		return LogoutResult{Failure: FailureStore, Err: err}
	}
	return LogoutResult{}
}
