package frame

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/vaultframe/internal/domain"
)

const maxPacketSize = 1 << 16

// actionPacket is the signed frame packet posted by the client. Only the
// untrusted section is consumed; amounts and addresses it carries are
// re-validated against live chain state before anything acts on them.
type actionPacket struct {
	UntrustedData struct {
		FID           uint64 `json:"fid"`
		ButtonIndex   int    `json:"buttonIndex"`
		InputText     string `json:"inputText"`
		TransactionID string `json:"transactionId"`
	} `json:"untrustedData"`
}

// decodeAction extracts the user action from an inbound frame POST.
// A missing or zero session id is a contract violation, not user error.
func decodeAction(r *http.Request) (*domain.Action, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPacketSize))
	if err != nil {
		return nil, errors.Wrap(err, "read frame packet")
	}

	var packet actionPacket
	if err := json.Unmarshal(payload, &packet); err != nil {
		return nil, errors.Wrap(err, "decode frame packet")
	}

	if packet.UntrustedData.FID == 0 {
		return nil, errors.New("frame packet has no session id")
	}

	return &domain.Action{
		SessionID:     packet.UntrustedData.FID,
		Button:        packet.UntrustedData.ButtonIndex,
		Input:         packet.UntrustedData.InputText,
		TransactionID: packet.UntrustedData.TransactionID,
	}, nil
}
