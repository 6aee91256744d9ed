package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

func TestCreateCmd_Document(t *testing.T) {
	defer setupTestServices(t)()

	out, err := runCommand(t, "create", "docs", "--file", writeRecords(t, "docs.json", docRecords()))

	require.NoError(t, err)
	assert.Contains(t, out, "build docs: 3 received, 3 written, 0 dropped, 0 failed")
	assert.Contains(t, out, "Created document index docs (docs)")
}

func TestCreateCmd_FAQ(t *testing.T) {
	defer setupTestServices(t)()

	out, err := runCommand(t, "create", "help", "--mode", "faq",
		"--file", writeRecords(t, "faq.json", faqRecords()))

	require.NoError(t, err)
	assert.Contains(t, out, "Created faq index help (help_questions, help_answers)")
}

func TestCreateCmd_CustomFields(t *testing.T) {
	defer setupTestServices(t)()

	path := writeRecords(t, "docs.json", []map[string]any{
		{"key": 1, "body": "Delivery to your door takes two working days"},
		{"key": 2, "body": "Refunds are issued to the original card"},
	})
	out, err := runCommand(t, "create", "docs", "--file", path,
		"--id-field", "key", "--content-field", "body", "--collection", "articles")

	require.NoError(t, err)
	assert.Contains(t, out, "2 written")
	assert.Contains(t, out, "(articles)")
}

func TestCreateCmd_Errors(t *testing.T) {
	defer setupTestServices(t)()

	_, err := runCommand(t, "create", "docs")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = runCommand(t, "create", "docs", "--mode", "wiki",
		"--file", writeRecords(t, "docs.json", docRecords()))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = runCommand(t, "create")
	assert.Error(t, err)
}

func TestCreateCmd_ExistingNeedsForce(t *testing.T) {
	defer setupTestServices(t)()
	createDocs(t)

	path := writeRecords(t, "docs.json", docRecords())
	_, err := runCommand(t, "create", "docs", "--file", path)
	require.Error(t, err)

	out, err := runCommand(t, "create", "docs", "--file", path, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Created document index docs")
}

func TestListCmd(t *testing.T) {
	defer setupTestServices(t)()

	out, err := runCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No indexes.")

	createDocs(t)

	out, err = runCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "document")
}

func TestListCmd_JSON(t *testing.T) {
	defer setupTestServices(t)()
	createDocs(t)

	out, err := runCommand(t, "list", "--json")
	require.NoError(t, err)

	var manifests []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &manifests))
	require.Len(t, manifests, 1)
}

func TestShowCmd(t *testing.T) {
	defer setupTestServices(t)()
	createDocs(t)

	out, err := runCommand(t, "show", "docs", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "Refunds are issued to the original card within a week")

	out, err = runCommand(t, "show", "docs", "99")
	require.NoError(t, err)
	assert.Contains(t, out, "No records found.")

	_, err = runCommand(t, "show", "docs", "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShowCmd_FAQ(t *testing.T) {
	defer setupTestServices(t)()
	_, err := runCommand(t, "create", "help", "--mode", "faq",
		"--file", writeRecords(t, "faq.json", faqRecords()))
	require.NoError(t, err)

	out, err := runCommand(t, "show", "help", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Q: How long does delivery take?")
	assert.Contains(t, out, "A: Delivery takes two working days.")
}

func TestShowCmd_JSON(t *testing.T) {
	defer setupTestServices(t)()
	createDocs(t)

	out, err := runCommand(t, "show", "docs", "1", "3", "--json")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 2)
}

func TestDropCmd(t *testing.T) {
	defer setupTestServices(t)()
	createDocs(t)

	out, err := runCommand(t, "drop", "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "Dropped index docs")

	_, err = runCommand(t, "show", "docs", "1")
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestOpenMissingIndex(t *testing.T) {
	defer setupTestServices(t)()

	_, err := runCommand(t, "search", "nope", "delivery")
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestCheckCmd_Consistent(t *testing.T) {
	defer setupTestServices(t)()
	_, err := runCommand(t, "create", "help", "--mode", "faq",
		"--file", writeRecords(t, "faq.json", faqRecords()))
	require.NoError(t, err)

	out, err := runCommand(t, "check", "help")
	require.NoError(t, err)
	assert.Contains(t, out, "help_questions")
	assert.Contains(t, out, "3 points")
	assert.Contains(t, out, "Index is consistent.")
}
