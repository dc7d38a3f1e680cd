/**
 * @description
 * This file implements the transfer executor, the one worker with a real
 * state machine. It maps the inbound request to the provider wire format,
 * issues the transfer call, classifies the outcome, and on an ambiguous
 * failure (HTTP 500/504) resolves it through a validation enquiry against the
 * provider's transaction list instead of assuming failure. The primary
 * transfer call is never retried: retrying it risks executing the transfer
 * twice.
 *
 * @dependencies
 * - context, encoding/json, log, strings, time: Standard Go libraries.
 * - internal/bus, internal/domain, internal/errcode, internal/metrics,
 *   pkg/fabrickclient.
 */

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/contodemo/account-service/internal/bus"
	"github.com/contodemo/account-service/internal/domain"
	"github.com/contodemo/account-service/internal/errcode"
	"github.com/contodemo/account-service/internal/metrics"
	"github.com/contodemo/account-service/pkg/fabrickclient"
)

// Messages for the terminal reconciliation states. The "unknown" wordings
// deliberately tell the caller the outcome is indeterminate rather than
// claiming a failure that may not have happened.
const (
	msgCannotExtractAccountID = "Could not extract account ID for validation enquiry"
	msgEnquiryFailed          = "Transfer status unknown - validation enquiry failed. Please retry later."
	msgEnquiryUnavailable     = "Transfer status unknown - validation enquiry unavailable. Please retry later."
	msgEnquiryParseFailed     = "Transfer status unknown - error parsing validation enquiry"
	msgNoMatchingTransaction  = "Transfer failed - no matching transaction found. Please retry."
)

// remittanceInformation is the uri value the provider requires on transfer
// payloads.
const remittanceInformation = "REMITTANCE_INFORMATION"

// TransferExecutor serves TopicTransfer.
type TransferExecutor struct {
	client *fabrickclient.Client
	now    func() time.Time
}

// NewTransferExecutor creates a transfer executor backed by the given client.
func NewTransferExecutor(client *fabrickclient.Client) *TransferExecutor {
	return &TransferExecutor{client: client, now: time.Now}
}

// Register subscribes the executor on the bus.
func (e *TransferExecutor) Register(b *bus.Bus) error {
	return b.Subscribe(TopicTransfer, e.handle)
}

func (e *TransferExecutor) handle(ctx context.Context, d *bus.Delivery) {
	dispatch, ok := d.Body.(domain.TransferDispatch)
	if !ok {
		d.Fail(errcode.Internal, fmt.Sprintf("ErrorCode %d - unexpected payload type for %s", errcode.Internal, d.Topic))
		return
	}

	log.Printf("level=info component=transfer_executor msg=\"transfer submitted\" endpoint=%s request_id=%s", dispatch.Endpoint, d.CorrelationID)

	var request domain.TransferRequest
	if err := json.Unmarshal(dispatch.Payload, &request); err != nil {
		message := fmt.Sprintf("ErrorCode %d - Error parsing request JSON", errcode.ValidationInvalidRequest)
		log.Printf("level=error component=transfer_executor msg=\"request parse failed\" request_id=%s err=%v", d.CorrelationID, err)
		metrics.TransferOutcomes.WithLabelValues(domain.TransferFailed.Label()).Inc()
		d.Fail(errcode.ValidationInvalidRequest, message)
		return
	}

	wireBody, err := json.Marshal(buildProviderRequest(&request, e.now()))
	if err != nil {
		log.Printf("level=error component=transfer_executor msg=\"failed to serialize provider payload\" request_id=%s err=%v", d.CorrelationID, err)
		metrics.TransferOutcomes.WithLabelValues(domain.TransferFailed.Label()).Inc()
		d.Fail(errcode.InternalSerialization, fmt.Sprintf("ErrorCode %d - Error serializing provider request", errcode.InternalSerialization))
		return
	}

	resp, err := e.client.Post(ctx, dispatch.Endpoint, wireBody)
	if err != nil {
		// The call never reached the provider, so no ambiguity exists.
		message := fmt.Sprintf("ErrorCode %d - Unable to call Fabrick API, service may be down: %v", errcode.APIConnectionFailed, err)
		log.Printf("level=error component=transfer_executor msg=\"provider unreachable\" request_id=%s err=%v", d.CorrelationID, err)
		metrics.TransferOutcomes.WithLabelValues(domain.TransferFailed.Label()).Inc()
		d.Fail(errcode.APIConnectionFailed, message)
		return
	}

	log.Printf("level=info component=transfer_executor msg=\"provider responded\" status=%d request_id=%s", resp.StatusCode, d.CorrelationID)

	switch resp.Kind() {
	case fabrickclient.OutcomeSuccess:
		// Accepted by the provider; bank-side settlement status not yet known.
		e.reply(d, domain.TransferPending, domain.NewTransferSuccess(domain.TransferPending))

	case fabrickclient.OutcomeAmbiguous:
		log.Printf("level=warn component=transfer_executor msg=\"ambiguous provider failure, starting validation enquiry\" status=%d request_id=%s", resp.StatusCode, d.CorrelationID)
		e.reconcile(ctx, d, &request, dispatch.Endpoint)

	default:
		envelope, parseErr := fabrickclient.ParseErrorEnvelope(resp.Body)
		if parseErr != nil {
			log.Printf("level=error component=transfer_executor msg=\"failed to parse provider error envelope\" request_id=%s err=%v", d.CorrelationID, parseErr)
			metrics.TransferOutcomes.WithLabelValues(domain.TransferFailed.Label()).Inc()
			d.Fail(errcode.APIParseError, fmt.Sprintf("ErrorCode %d - Error parsing error response", errcode.APIParseError))
			return
		}
		message := fabrickclient.FormatErrors(errcode.APIError, envelope.Errors)
		log.Printf("level=error component=transfer_executor msg=\"provider rejected transfer\" status=%d request_id=%s detail=%q", resp.StatusCode, d.CorrelationID, message)
		e.reply(d, domain.TransferFailed, domain.NewTransferError(message))
	}
}

// reconcile resolves an ambiguous transfer failure by searching today's
// transactions for a matching outgoing movement. Every path out of here is
// terminal: EXECUTED on a match, FAILED(no-match) when the list was searched
// and nothing matched, UNKNOWN when the enquiry itself could not complete.
func (e *TransferExecutor) reconcile(ctx context.Context, d *bus.Delivery, request *domain.TransferRequest, transferURL string) {
	metrics.ReconciliationRuns.Inc()

	accountID, ok := accountIDFromURL(transferURL)
	if !ok {
		log.Printf("level=error component=transfer_executor msg=\"could not extract account id from transfer url\" url=%s request_id=%s", transferURL, d.CorrelationID)
		e.reply(d, domain.TransferUnknown, domain.NewTransferError(msgCannotExtractAccountID))
		return
	}

	today := e.now().Format("2006-01-02")
	enquiryURL := e.client.TransactionsURL(accountID, today, today)
	log.Printf("level=info component=transfer_executor msg=\"searching transactions for validation enquiry\" url=%s request_id=%s", enquiryURL, d.CorrelationID)

	resp, err := e.client.Get(ctx, enquiryURL)
	if err != nil {
		log.Printf("level=error component=transfer_executor msg=\"validation enquiry unreachable\" request_id=%s err=%v", d.CorrelationID, err)
		e.reply(d, domain.TransferUnknown, domain.NewTransferError(msgEnquiryUnavailable))
		return
	}
	if resp.Kind() != fabrickclient.OutcomeSuccess {
		log.Printf("level=error component=transfer_executor msg=\"validation enquiry failed\" status=%d request_id=%s", resp.StatusCode, d.CorrelationID)
		e.reply(d, domain.TransferUnknown, domain.NewTransferError(msgEnquiryFailed))
		return
	}

	var envelope domain.TransactionsEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		log.Printf("level=error component=transfer_executor msg=\"failed to parse validation enquiry response\" request_id=%s err=%v", d.CorrelationID, err)
		e.reply(d, domain.TransferUnknown, domain.NewTransferError(msgEnquiryParseFailed))
		return
	}

	if match := MatchTransfer(request, envelope.Payload.List); match != nil {
		log.Printf("level=info component=transfer_executor msg=\"validation enquiry found matching transfer\" transaction_id=%s request_id=%s", match.TransactionID, d.CorrelationID)
		e.reply(d, domain.TransferExecuted, domain.NewTransferSuccess(domain.TransferExecuted))
		return
	}

	log.Printf("level=warn component=transfer_executor msg=\"validation enquiry found no matching transfer\" request_id=%s", d.CorrelationID)
	e.reply(d, domain.TransferFailed, domain.NewTransferError(msgNoMatchingTransaction))
}

// reply encodes the terminal transfer reply. The outcome set is closed; every
// state is counted and encoded here.
func (e *TransferExecutor) reply(d *bus.Delivery, outcome domain.TransferOutcome, body domain.TransferReply) {
	metrics.TransferOutcomes.WithLabelValues(outcome.Label()).Inc()

	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=transfer_executor msg=\"failed to serialize reply\" request_id=%s err=%v", d.CorrelationID, err)
		d.Fail(errcode.InternalSerialization, fmt.Sprintf("ErrorCode %d - Error serializing response", errcode.InternalSerialization))
		return
	}
	d.Reply(payload)
}

// buildProviderRequest maps the inbound request to the provider wire format.
// The tax relief block must always be present, with empty beneficiary
// objects, even when the inbound request carries none.
func buildProviderRequest(request *domain.TransferRequest, now time.Time) domain.MoneyTransferRequest {
	wire := domain.MoneyTransferRequest{
		Creditor: domain.ProviderCreditor{
			Name: request.Creditor.Name,
			Account: domain.ProviderCreditorAccount{
				AccountCode: request.Creditor.Account.AccountCode,
				BicCode:     request.Creditor.Account.BicCode,
			},
		},
		ExecutionDate: now.Format("2006-01-02"),
		URI:           remittanceInformation,
		Description:   request.Description,
		Amount:        request.Amount,
		Currency:      request.Currency,
		IsUrgent:      false,
		IsInstant:     false,
		FeeType:       request.FeeType,
		FeeAccountID:  request.FeeAccountID,
	}

	if relief := request.TaxRelief; relief != nil {
		wire.TaxRelief.TaxReliefID = relief.TaxReliefID
		if relief.IsCondoUpgrade != nil {
			wire.TaxRelief.IsCondoUpgrade = *relief.IsCondoUpgrade
		}
		wire.TaxRelief.CreditorFiscalCode = relief.CreditorFiscalCode
		wire.TaxRelief.BeneficiaryType = relief.BeneficiaryType
		if relief.NaturalPersonBeneficiary != nil {
			wire.TaxRelief.NaturalPersonBeneficiary.FiscalCode1 = relief.NaturalPersonBeneficiary.FiscalCode1
		}
	}

	return wire
}

// accountIDFromURL extracts the account id from a transfer endpoint, the path
// segment following the "/accounts/" marker. Malformed input here is a
// configuration error, not a user error.
func accountIDFromURL(url string) (string, bool) {
	_, rest, found := strings.Cut(url, "/accounts/")
	if !found {
		return "", false
	}
	accountID, _, _ := strings.Cut(rest, "/")
	if accountID == "" {
		return "", false
	}
	return accountID, true
}
