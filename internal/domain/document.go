package domain

import "time"

// DocumentCategory names an upload slot. The values double as multipart field names.
type DocumentCategory string

const (
	CategoryDeed              DocumentCategory = "Deed"
	CategoryNICCopy           DocumentCategory = "NICCopy"
	CategoryConnectionForm    DocumentCategory = "ConnectionForm"
	CategoryPayInVoucher      DocumentCategory = "PayInVoucher"
	CategoryDepositSlip       DocumentCategory = "DepositSlip"
	CategoryRequestLetter     DocumentCategory = "RequestLetter"
	CategoryApprovalLetter    DocumentCategory = "ApprovalLetter"
	CategoryConsumerAgreement DocumentCategory = "ConsumerAgreement"
	CategoryEstimate          DocumentCategory = "Estimate"
	CategoryBoardAgreement    DocumentCategory = "BoardAgreement"
	CategoryTechnicalReport   DocumentCategory = "TechnicalReport"
	CategoryConsumerReport    DocumentCategory = "ConsumerReport"
	CategoryMeterReaderReport DocumentCategory = "MeterReaderReport"
	CategoryCompletionReport  DocumentCategory = "CompletionReport"
	CategoryOther             DocumentCategory = "Other"
)

// MaxOtherDocuments caps the uncategorized attachment list.
const MaxOtherDocuments = 5

// RequiredCategories lists every slot a complete bundle must populate, in display order.
var RequiredCategories = []DocumentCategory{
	CategoryDeed,
	CategoryNICCopy,
	CategoryConnectionForm,
	CategoryPayInVoucher,
	CategoryDepositSlip,
	CategoryRequestLetter,
	CategoryApprovalLetter,
	CategoryConsumerAgreement,
	CategoryEstimate,
	CategoryBoardAgreement,
	CategoryTechnicalReport,
	CategoryConsumerReport,
	CategoryMeterReaderReport,
	CategoryCompletionReport,
}

// IsRequired reports whether c is one of the fixed slots.
func (c DocumentCategory) IsRequired() bool {
	for _, req := range RequiredCategories {
		if req == c {
			return true
		}
	}
	return false
}

// StoredFile is the metadata of one file kept under the upload root.
type StoredFile struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Empty reports whether the slot holds no file.
func (f StoredFile) Empty() bool {
	return f.Filename == ""
}

// RequiredDocuments has one field per required category.
type RequiredDocuments struct {
	Deed              StoredFile `json:"Deed"`
	NICCopy           StoredFile `json:"NICCopy"`
	ConnectionForm    StoredFile `json:"ConnectionForm"`
	PayInVoucher      StoredFile `json:"PayInVoucher"`
	DepositSlip       StoredFile `json:"DepositSlip"`
	RequestLetter     StoredFile `json:"RequestLetter"`
	ApprovalLetter    StoredFile `json:"ApprovalLetter"`
	ConsumerAgreement StoredFile `json:"ConsumerAgreement"`
	Estimate          StoredFile `json:"Estimate"`
	BoardAgreement    StoredFile `json:"BoardAgreement"`
	TechnicalReport   StoredFile `json:"TechnicalReport"`
	ConsumerReport    StoredFile `json:"ConsumerReport"`
	MeterReaderReport StoredFile `json:"MeterReaderReport"`
	CompletionReport  StoredFile `json:"CompletionReport"`
}

// Slot returns a pointer to the field backing category, or nil for Other/unknown.
func (r *RequiredDocuments) Slot(category DocumentCategory) *StoredFile {
	switch category {
	case CategoryDeed:
		return &r.Deed
	case CategoryNICCopy:
		return &r.NICCopy
	case CategoryConnectionForm:
		return &r.ConnectionForm
	case CategoryPayInVoucher:
		return &r.PayInVoucher
	case CategoryDepositSlip:
		return &r.DepositSlip
	case CategoryRequestLetter:
		return &r.RequestLetter
	case CategoryApprovalLetter:
		return &r.ApprovalLetter
	case CategoryConsumerAgreement:
		return &r.ConsumerAgreement
	case CategoryEstimate:
		return &r.Estimate
	case CategoryBoardAgreement:
		return &r.BoardAgreement
	case CategoryTechnicalReport:
		return &r.TechnicalReport
	case CategoryConsumerReport:
		return &r.ConsumerReport
	case CategoryMeterReaderReport:
		return &r.MeterReaderReport
	case CategoryCompletionReport:
		return &r.CompletionReport
	}
	return nil
}

// Missing returns the required categories with no file.
func (r *RequiredDocuments) Missing() []DocumentCategory {
	var missing []DocumentCategory
	for _, cat := range RequiredCategories {
		if r.Slot(cat).Empty() {
			missing = append(missing, cat)
		}
	}
	return missing
}

// DocumentBundle is the set of uploaded files of one connection.
type DocumentBundle struct {
	AccountNumber string            `json:"accountNumber"`
	Required      RequiredDocuments `json:"documents"`
	Other         []StoredFile      `json:"Other"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Files returns every populated file of the bundle, required slots first.
func (b *DocumentBundle) Files() []StoredFile {
	files := make([]StoredFile, 0, len(RequiredCategories)+len(b.Other))
	for _, cat := range RequiredCategories {
		if slot := b.Required.Slot(cat); !slot.Empty() {
			files = append(files, *slot)
		}
	}
	for _, f := range b.Other {
		if !f.Empty() {
			files = append(files, f)
		}
	}
	return files
}
