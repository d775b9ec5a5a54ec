package register

import (
	"net/http"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/invitation"
)

var statusResponses = map[invitation.Status]struct {
	code int
	key  string
}{
	invitation.StatusMissingID:   {http.StatusBadRequest, "invitationMissing"},
	invitation.StatusNotFound:    {http.StatusNotFound, "invitationNotFound"},
	invitation.StatusAlreadyUsed: {http.StatusGone, "invitationUsed"},
	invitation.StatusExpired:     {http.StatusGone, "invitationExpired"},
}

// WriteInvalidInvitation writes the blocking document for a non-valid
// invitation status. t translates message keys for the caller.
func WriteInvalidInvitation(w http.ResponseWriter, st invitation.Status, t func(string) string) {
	resp, ok := statusResponses[st]
	if !ok {
		resp.code, resp.key = http.StatusBadRequest, "invitationNotFound"
	}
	uierrors.WriteBlocking(w, resp.code, string(st), t(resp.key))
}
