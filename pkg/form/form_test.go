package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeTag(t *testing.T) {
	assert.Equal(t, Tag(0x00464146), MakeTag("FAF"))
	assert.Equal(t, Tag(0x434F4E43), MakeTag("CONC"))
	assert.Equal(t, "CONC", MakeTag("CONC").String())
	assert.Equal(t, "FAF", MakeTag("FAF").String())
	assert.Equal(t, MakeTag("ESAS"), MakeTag("ESASX"), "only four characters fit")
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "000000AA", ID(0xAA).String())
	assert.Equal(t, "FE000900", ID(0xFE000900).String())
	assert.Equal(t, ID(0x900), ID(0xFE000900).Local())
}
