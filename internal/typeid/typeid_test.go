package typeid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIDsCarryPrefix(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewAreaID(), "area_"))
	assert.True(t, strings.HasPrefix(NewImageID(), "img_"))
	assert.True(t, strings.HasPrefix(NewConnectionID(), "conn_"))
	assert.NotEqual(t, NewOpID(), NewOpID())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(NewImageID(), PrefixImage))
	assert.Error(t, Validate(NewAreaID(), PrefixImage))
	assert.Error(t, Validate("not an id", PrefixImage))
}

func TestIDsSortInCreationOrder(t *testing.T) {
	first := NewAreaID()
	time.Sleep(2 * time.Millisecond)
	second := NewAreaID()
	assert.Less(t, first, second)
}
