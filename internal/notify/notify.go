// Package notify renders and sends bid emails.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"procurement/internal/apperr"
	"procurement/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const dateLayout = "January 02, 2006"

// LinkSigner issues the token carried by vendor links.
type LinkSigner interface {
	IssueVendorToken(bidID, vendorID int) (string, error)
}

// EmailNotifier sends one message per recipient. Failures are collected and
// returned together as a delivery error.
type EmailNotifier struct {
	mailer  Mailer
	links   LinkSigner
	baseURL string
	now     func() time.Time
	log     *zap.Logger
}

func NewEmailNotifier(mailer Mailer, links LinkSigner, baseURL string, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		mailer:  mailer,
		links:   links,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		log:     log,
	}
}

type mailData struct {
	Subject        string
	BuyerName      string
	BuyerCompany   string
	VendorCompany  string
	BidTitle       string
	BidDescription string
	DueDate        string
	DaysRemaining  int
	ItemCount      int
	SubmittedAt    string
	HasHeader      bool
	Link           string
}

func (n *EmailNotifier) BidInvitation(ctx context.Context, bid *models.Bid, buyer *models.User, invitations []models.Invitation) error {
	subject := "Bid Invitation: " + bid.Title
	return n.toVendors(ctx, "invitation.html", bid, invitations, func(inv models.Invitation) mailData {
		d := n.baseData(subject, bid, buyer)
		d.VendorCompany = inv.CompanyName
		d.BidDescription = bid.Description
		d.ItemCount = len(bid.Items)
		return d
	})
}

func (n *EmailNotifier) DueDateExtended(ctx context.Context, bid *models.Bid, buyer *models.User, invitations []models.Invitation) error {
	subject := "Bid Due Date Extended: " + bid.Title
	return n.toVendors(ctx, "extension.html", bid, invitations, func(inv models.Invitation) mailData {
		d := n.baseData(subject, bid, buyer)
		d.VendorCompany = inv.CompanyName
		return d
	})
}

func (n *EmailNotifier) Reminder(ctx context.Context, bid *models.Bid, buyer *models.User, invitations []models.Invitation) error {
	subject := "Bid Reminder: " + bid.Title
	return n.toVendors(ctx, "reminder.html", bid, invitations, func(inv models.Invitation) mailData {
		d := n.baseData(subject, bid, buyer)
		d.VendorCompany = inv.CompanyName
		return d
	})
}

func (n *EmailNotifier) SubmissionReceived(ctx context.Context, bid *models.Bid, buyer *models.User, inv models.Invitation, sub *models.Submission) error {
	if buyer == nil || buyer.Email == "" {
		return apperr.ErrDeliveryFailed.WithMessage("Buyer email not found")
	}

	d := n.baseData("Bid Response Received: "+bid.Title, bid, buyer)
	d.VendorCompany = inv.CompanyName
	d.SubmittedAt = sub.SubmittedAt.Format(dateLayout)
	d.ItemCount = len(sub.Items)
	d.HasHeader = !sub.Header.IsEmpty()
	d.Link = fmt.Sprintf("%s/dashboard/bids/%d", n.baseURL, bid.ID)

	if err := n.send(ctx, "submission.html", buyer.Email, d); err != nil {
		return apperr.ErrDeliveryFailed.WithInternal(err)
	}
	return nil
}

func (n *EmailNotifier) baseData(subject string, bid *models.Bid, buyer *models.User) mailData {
	d := mailData{
		Subject:       subject,
		BidTitle:      bid.Title,
		DueDate:       bid.DueDate.Format(dateLayout),
		DaysRemaining: DaysRemaining(bid.DueDate, n.now()),
	}
	if buyer != nil {
		d.BuyerName = buyer.Name
		d.BuyerCompany = buyer.CompanyName
	}
	return d
}

func (n *EmailNotifier) toVendors(ctx context.Context, name string, bid *models.Bid, invitations []models.Invitation, build func(models.Invitation) mailData) error {
	var errs error
	for _, inv := range invitations {
		link, err := n.vendorLink(bid.ID, inv.VendorID)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		d := build(inv)
		d.Link = link
		if err := n.send(ctx, name, inv.Email, d); err != nil {
			n.log.Warn("email delivery failed",
				zap.String("template", name),
				zap.Int("bid_id", bid.ID),
				zap.Int("vendor_id", inv.VendorID),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("vendor %d: %w", inv.VendorID, err))
		}
	}
	if errs != nil {
		return apperr.ErrDeliveryFailed.WithInternal(errs)
	}
	return nil
}

func (n *EmailNotifier) vendorLink(bidID, vendorID int) (string, error) {
	token, err := n.links.IssueVendorToken(bidID, vendorID)
	if err != nil {
		return "", err
	}
	return n.baseURL + "/vendor/" + strconv.Itoa(bidID) + "?token=" + url.QueryEscape(token), nil
}

func (n *EmailNotifier) send(ctx context.Context, name, to string, d mailData) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, d); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return n.mailer.Send(ctx, Message{
		To:      to,
		Subject: d.Subject,
		HTML:    buf.String(),
	})
}

// DaysRemaining rounds the time until due up to whole days.
func DaysRemaining(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}
