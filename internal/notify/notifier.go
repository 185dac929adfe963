package notify

import (
	"context"
	"errors"

	"crown_back_end/internal/models"
)

// Notifier renders the order emails and hands them to a Sender.
type Notifier struct {
	sender        Sender
	contact       Contact
	businessEmail string
}

func NewNotifier(sender Sender, contact Contact) *Notifier {
	if contact.StoreName == "" {
		contact.StoreName = "Crown Mega Store"
	}
	return &Notifier{sender: sender, contact: contact, businessEmail: contact.Email}
}

// OrderPlaced sends the business alert and the customer confirmation. Both
// are attempted; the returned error joins any failures.
func (n *Notifier) OrderPlaced(ctx context.Context, o models.Order) error {
	var errs []error

	if n.businessEmail != "" {
		if msg, err := BusinessOrderEmail(o, n.contact); err != nil {
			errs = append(errs, err)
		} else if err := n.sender.Send(ctx, n.businessEmail, msg.Subject, msg.Body); err != nil {
			errs = append(errs, err)
		}
	}

	if msg, err := CustomerOrderEmail(o, n.contact); err != nil {
		errs = append(errs, err)
	} else if err := n.sender.Send(ctx, o.CustomerEmail, msg.Subject, msg.Body); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// StatusChanged emails the customer about a status change.
func (n *Notifier) StatusChanged(ctx context.Context, o models.Order, status models.OrderStatus, notes string) error {
	msg, err := StatusUpdateEmail(o, status, notes, n.contact)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, o.CustomerEmail, msg.Subject, msg.Body)
}
