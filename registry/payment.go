package registry

import "clearinghouse/domain"

// CreatePayment creates a directed fungible transfer request, active and
// unfulfilled until its recipient accepts it.
func (r *Registry) CreatePayment(sender, recipient domain.Address, amount int64, token domain.Token) (domain.PaymentID, error) {
	if recipient == "" {
		return 0, validationErrorf("payment requires a recipient")
	}
	if recipient == sender {
		return 0, validationErrorf("recipient must differ from sender")
	}
	if amount <= 0 {
		return 0, validationErrorf("amount must be positive")
	}

	id := domain.PaymentID(r.paymentSeq.next())
	p := domain.NewPaymentRequest(id, sender, recipient, amount, token)
	r.payments[id] = p
	r.activePayments.Add(id)
	return id, nil
}

// AcceptPayment marks a payment fulfilled by its recipient, who must supply
// the expected sender and amount as a confirmation check. Only a fulfilled
// payment is eligible to enter a settlement cycle (spec.md §3).
func (r *Registry) AcceptPayment(id domain.PaymentID, recipient domain.Address, expectedSender domain.Address, expectedAmount int64) error {
	p, ok := r.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Recipient != recipient {
		return validationErrorf("payment %d is not owned by %s", id, recipient)
	}
	if !p.Active {
		return validationErrorf("payment %d is not active", id)
	}
	if p.Sender != expectedSender {
		return validationErrorf("payment %d sender mismatch", id)
	}
	if p.Amount != expectedAmount {
		return validationErrorf("payment %d amount mismatch", id)
	}
	p.Fulfilled = true
	return nil
}

// CancelPayment cancels an active payment request.
func (r *Registry) CancelPayment(id domain.PaymentID, requester domain.Address) error {
	p, ok := r.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Sender != requester {
		return validationErrorf("payment %d is not owned by %s", id, requester)
	}
	if !p.Active {
		return validationErrorf("payment %d is not active", id)
	}
	p.Active = false
	r.activePayments.Remove(id)
	return nil
}
