package pin

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/heya-pos/heya/internal/domain/staff"
)

func TestHashCommand_FromStdin(t *testing.T) {
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader("4821\n"))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"hash", "--cost", "4"})

	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("4821")))
}

func TestHashPIN_RejectsMalformed(t *testing.T) {
	_, err := hashPIN("12", bcrypt.MinCost)
	assert.ErrorIs(t, err, staff.ErrInvalidPINFormat)
}
