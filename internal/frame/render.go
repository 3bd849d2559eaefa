package frame

import (
	"fmt"
	"html"
	"math/big"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/vaultframe/internal/domain"
	"github.com/vadiminshakov/vaultframe/internal/engine"
)

const learnMoreURL = "https://pooltogether.com/"

type button struct {
	label string
	// action is empty for a plain post button, "link" or "tx" otherwise.
	action string
	target string
}

// screen is everything a view needs rendered: image content, optional
// input field and the ordered button list. The button order must match
// the engine's handler table for the view.
type screen struct {
	title   string
	lines   []string
	errMsg  string
	input   string
	buttons []button
}

// buildScreen selects the screen for the session's current view. rejected
// drives the inline error message; the view itself never changes on
// rejection so the same screen re-renders.
func buildScreen(vault domain.Vault, sess domain.Session, rejected bool, justApproved bool, baseURL string) (screen, error) {
	vaultPath := baseURL + "/vault/" + url.PathEscape(vault.ID)

	switch sess.View {
	case domain.ViewWelcome:
		return screen{
			title: "Welcome",
			lines: []string{vault.Symbol + " vault"},
			buttons: []button{
				{label: "Deposit"},
				{label: "View Account"},
				{label: "Learn More", action: "link", target: learnMoreURL},
			},
		}, nil

	case domain.ViewAwaitingAddress:
		s := screen{
			title:   "Connect",
			lines:   []string{"Enter your wallet address to get started"},
			input:   "0x...",
			buttons: []button{{label: "Submit"}},
		}
		if rejected {
			s.errMsg = "Invalid wallet address"
		}
		return s, nil

	case domain.ViewAccount:
		return screen{
			title: "Account",
			lines: []string{
				maskAddress(sess.Address),
				"Vault: " + formatUnits(sess.Shares, vault.Asset.Decimals) + " " + vault.Symbol,
				"Wallet: " + formatUnits(sess.Assets, vault.Asset.Decimals) + " " + vault.Asset.Symbol,
			},
			buttons: []button{
				{label: "Deposit"},
				{label: "Withdraw"},
				{label: "Switch Account"},
			},
		}, nil

	case domain.ViewDepositParams:
		s := screen{
			title: "Deposit",
			lines: []string{
				"Choose an amount to deposit",
				"Available: " + formatUnits(sess.Assets, vault.Asset.Decimals) + " " + vault.Asset.Symbol,
			},
			input: "Enter an amount of " + vault.Asset.Symbol + "...",
			buttons: []button{
				{label: "Back"},
				{label: "Deposit Amount"},
			},
		}
		if rejected {
			s.errMsg = "Invalid token amount"
		}
		return s, nil

	case domain.ViewApproveTx:
		return screen{
			title: "Approve",
			lines: []string{
				"Approving " + formatUnits(sess.DepositAmount, vault.Asset.Decimals) + " " + vault.Asset.Symbol,
			},
			buttons: []button{
				{label: "Cancel"},
				{label: "Approve", action: "tx", target: vaultPath + "/approve?aa=" + bigQuery(sess.DepositAmount)},
			},
		}, nil

	case domain.ViewDepositTx:
		s := screen{
			title: "Deposit",
			lines: []string{
				"Depositing " + formatUnits(sess.DepositAmount, vault.Asset.Decimals) + " " + vault.Asset.Symbol,
			},
			buttons: []button{
				{label: "Cancel"},
				{label: "Deposit", action: "tx",
					target: vaultPath + "/deposit?a=" + url.QueryEscape(sess.Address) + "&da=" + bigQuery(sess.DepositAmount)},
			},
		}
		if justApproved {
			s.lines = append([]string{"You've just approved some " + vault.Asset.Symbol + "!"}, s.lines...)
		}
		return s, nil

	case domain.ViewDepositSuccess:
		return screen{
			title: "Success",
			lines: []string{
				"Deposited " + formatUnits(sess.DepositAmount, vault.Asset.Decimals) + " " + vault.Asset.Symbol,
			},
			buttons: []button{{label: "View Account"}},
		}, nil

	case domain.ViewWithdrawParams:
		s := screen{
			title: "Withdraw",
			lines: []string{
				"Choose an amount to withdraw (or withdraw all)",
				"Vault: " + formatUnits(sess.Shares, vault.Asset.Decimals) + " " + vault.Symbol,
			},
			input: "Enter an amount of " + vault.Symbol + "...",
			buttons: []button{
				{label: "Back"},
				{label: "Withdraw Amount"},
				{label: "Withdraw All"},
			},
		}
		if rejected {
			s.errMsg = "Invalid amount"
		}
		return s, nil

	case domain.ViewWithdrawTx:
		return screen{
			title: "Withdraw",
			lines: []string{
				"Withdrawing " + formatUnits(sess.WithdrawAmount, vault.Asset.Decimals) + " " + vault.Symbol,
			},
			buttons: []button{
				{label: "Cancel"},
				{label: "Withdraw", action: "tx",
					target: vaultPath + "/redeem?a=" + url.QueryEscape(sess.Address) + "&ra=" + bigQuery(sess.WithdrawAmount)},
			},
		}, nil

	case domain.ViewWithdrawSuccess:
		return screen{
			title: "Success",
			lines: []string{
				"Withdrew " + formatUnits(sess.WithdrawAmount, vault.Asset.Decimals) + " " + vault.Symbol,
			},
			buttons: []button{{label: "View Account"}},
		}, nil
	}

	return screen{}, fmt.Errorf("no screen for view %q", sess.View)
}

// imageURL encodes the screen content into the image endpoint query so the
// image handler can stay stateless.
func (s *screen) imageURL(baseURL, vaultID string) string {
	q := url.Values{}
	q.Set("t", s.title)
	for _, line := range s.lines {
		q.Add("l", line)
	}
	if s.errMsg != "" {
		q.Set("e", s.errMsg)
	}
	return baseURL + "/vault/" + url.PathEscape(vaultID) + "/image?" + q.Encode()
}

// writeFrameHTML emits the fc:frame meta-tag document for the screen.
func (s *screen) writeFrameHTML(w *strings.Builder, postURL, imgURL string) {
	w.WriteString("<!DOCTYPE html><html><head>\n")
	meta(w, "og:title", s.title)
	meta(w, "og:image", imgURL)
	meta(w, "fc:frame", "vNext")
	meta(w, "fc:frame:image", imgURL)
	meta(w, "fc:frame:image:aspect_ratio", "1:1")
	meta(w, "fc:frame:post_url", postURL)
	if s.input != "" {
		meta(w, "fc:frame:input:text", s.input)
	}
	for i, b := range s.buttons {
		prefix := fmt.Sprintf("fc:frame:button:%d", i+1)
		meta(w, prefix, b.label)
		if b.action != "" {
			meta(w, prefix+":action", b.action)
			meta(w, prefix+":target", b.target)
		}
	}
	w.WriteString("</head><body></body></html>\n")
}

func meta(w *strings.Builder, property, content string) {
	fmt.Fprintf(w, "<meta property=\"%s\" content=\"%s\" />\n",
		html.EscapeString(property), html.EscapeString(content))
}

// formatUnits renders a smallest-unit amount as a decimal string.
func formatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}

func bigQuery(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func maskAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// checkButtonParity verifies at startup that every screen's button list
// matches the engine's declared button count for that view.
func checkButtonParity(vault domain.Vault) error {
	for _, view := range []domain.View{
		domain.ViewWelcome, domain.ViewAwaitingAddress, domain.ViewAccount,
		domain.ViewDepositParams, domain.ViewApproveTx, domain.ViewDepositTx,
		domain.ViewDepositSuccess, domain.ViewWithdrawParams,
		domain.ViewWithdrawTx, domain.ViewWithdrawSuccess,
	} {
		want, err := engine.ButtonCount(view)
		if err != nil {
			return err
		}
		s, err := buildScreen(vault, domain.Session{View: view}, false, false, "")
		if err != nil {
			return err
		}
		if len(s.buttons) != want {
			return fmt.Errorf("view %s renders %d buttons, engine declares %d", view, len(s.buttons), want)
		}
	}
	return nil
}
