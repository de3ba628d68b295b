package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/artisanhub/backend/internal/models"
	"github.com/skip2/go-qrcode"
)

const solanaExplorerURL = "https://explorer.solana.com/tx/"

type ReceiptService struct {
	baseURL string
	cluster string
}

func NewReceiptService(baseURL, cluster string) *ReceiptService {
	return &ReceiptService{
		baseURL: strings.TrimRight(baseURL, "/"),
		cluster: cluster,
	}
}

// ReceiptLink points at the on-chain transaction when there is one and at
// the marketplace receipt page otherwise
func (s *ReceiptService) ReceiptLink(tx *models.Transaction) string {
	if tx.PaymentDetails.Provider == models.ProviderSolana && tx.PaymentDetails.TransactionHash != "" {
		link := solanaExplorerURL + url.PathEscape(tx.PaymentDetails.TransactionHash)
		if s.cluster != "" && s.cluster != "mainnet-beta" {
			link += "?cluster=" + url.QueryEscape(s.cluster)
		}
		return link
	}
	return fmt.Sprintf("%s/%s", s.baseURL, url.PathEscape(tx.ID))
}

// GenerateReceiptQR returns the receipt link and a base64 PNG QR code of it
func (s *ReceiptService) GenerateReceiptQR(tx *models.Transaction) (string, string, error) {
	link := s.ReceiptLink(tx)

	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return link, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
