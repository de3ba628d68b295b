package services

import (
	"encoding/xml"
	"fmt"

	"github.com/artisanhub/backend/internal/clock"
	"github.com/artisanhub/backend/internal/models"
	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
)

const StatusReportMessageType = "pacs.002.001.08"

var isoStatusCodes = map[models.TransactionStatus]string{
	models.StatusPending:   "PDNG",
	models.StatusCompleted: "ACSC",
	models.StatusFailed:    "RJCT",
	models.StatusCancelled: "CANC",
}

// SettlementService renders ledger entries as ISO 20022 status reports for
// the fiat settlement partner
type SettlementService struct {
	clock clock.Clock
}

func NewSettlementService(c clock.Clock) *SettlementService {
	if c == nil {
		c = clock.System()
	}
	return &SettlementService{clock: c}
}

func ISOStatusCode(status models.TransactionStatus) (string, error) {
	code, ok := isoStatusCodes[status]
	if !ok {
		return "", fmt.Errorf("no ISO 20022 status for %q", status)
	}
	return code, nil
}

// endToEndID prefers the bank's reference, then the provider payment id
func endToEndID(tx *models.Transaction) string {
	switch {
	case tx.PaymentDetails.BankReference != "":
		return tx.PaymentDetails.BankReference
	case tx.PaymentDetails.PaymentID != "":
		return tx.PaymentDetails.PaymentID
	default:
		return tx.ID
	}
}

// CreatePacs002 creates a pacs.002 payment status report for the entry
func (s *SettlementService) CreatePacs002(tx *models.Transaction) (*pacs_v08.FIToFIPaymentStatusReportV08, error) {
	status, err := ISOStatusCode(tx.Status)
	if err != nil {
		return nil, err
	}

	msgId := uuid.New().String()
	creDtTm := s.clock.Now()

	doc := &pacs_v08.FIToFIPaymentStatusReportV08{
		GrpHdr: pacs_v08.GroupHeader53{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
		},
		TxInfAndSts: []pacs_v08.PaymentTransaction80{
			{
				OrgnlInstrId:    &[]common.Max35Text{common.Max35Text(tx.ID)}[0],
				OrgnlEndToEndId: &[]common.Max35Text{common.Max35Text(endToEndID(tx))}[0],
				OrgnlTxId:       &[]common.Max35Text{common.Max35Text(tx.ID)}[0],
				TxSts:           &[]pacs_v08.ExternalPaymentTransactionStatus1Code{pacs_v08.ExternalPaymentTransactionStatus1Code(status)}[0],
			},
		},
	}

	return doc, nil
}

// StatusReportXML renders the entry's pacs.002 report as an XML document
func (s *SettlementService) StatusReportXML(tx *models.Transaction) (string, error) {
	doc, err := s.CreatePacs002(tx)
	if err != nil {
		return "", err
	}

	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return xml.Header + string(xmlData), nil
}
