package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionMissingFields(t *testing.T) {
	c := Connection{AccountNumber: "ACC-001", OwnerName: " ", Address: "1 Main St", Area: "North"}
	assert.Equal(t, []string{"ownerName", "ownerNIC", "ownerPhone", "purpose"}, c.MissingFields())
}

func TestConnectionPatchApply(t *testing.T) {
	c := Connection{AccountNumber: "ACC-001", OwnerName: "Old", Area: "North"}
	name := "  New Owner "
	ConnectionPatch{OwnerName: &name}.Apply(&c)
	assert.Equal(t, "New Owner", c.OwnerName)
	assert.Equal(t, "North", c.Area)
	assert.Equal(t, "ACC-001", c.AccountNumber)
}

func TestRequiredDocumentsMissing(t *testing.T) {
	var docs RequiredDocuments
	assert.Equal(t, RequiredCategories, docs.Missing())

	for _, cat := range RequiredCategories {
		docs.Slot(cat).Filename = string(cat) + ".pdf"
	}
	assert.Empty(t, docs.Missing())
	assert.Nil(t, docs.Slot(CategoryOther))
}

func TestBundleFilesOrder(t *testing.T) {
	b := DocumentBundle{Other: []StoredFile{{Filename: "o.pdf"}, {}}}
	b.Required.Estimate = StoredFile{Filename: "e.pdf"}
	b.Required.Deed = StoredFile{Filename: "d.pdf"}

	var names []string
	for _, f := range b.Files() {
		names = append(names, f.Filename)
	}
	assert.Equal(t, []string{"d.pdf", "e.pdf", "o.pdf"}, names)
}

func TestNameChangeApprovals(t *testing.T) {
	var r NameChangeRequest
	assert.Nil(t, r.Approval(0))
	assert.Nil(t, r.Approval(4))

	for _, level := range ApprovalLevels {
		r.Approval(level).Status = ApprovalApproved
	}
	assert.True(t, r.FullyApproved())

	r.Approval(2).Status = ApprovalRejected
	assert.False(t, r.FullyApproved())
	assert.Equal(t, ApprovalApproved, r.Approvals[0].Status)
	assert.Equal(t, ApprovalApproved, r.Approvals[2].Status)
}

func TestApprovalStatusIsDecision(t *testing.T) {
	assert.True(t, ApprovalApproved.IsDecision())
	assert.True(t, ApprovalRejected.IsDecision())
	assert.False(t, ApprovalNotApproved.IsDecision())
	assert.False(t, ApprovalStatus("Maybe").IsDecision())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleDataEntry.Valid())
	assert.True(t, RoleDataViewing.Valid())
	assert.False(t, Role("admin").Valid())
}
