package mumble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkName(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{nil, DefaultName},
		{[]string{"-mumble"}, DefaultName},
		{[]string{"-mumble", "Custom"}, "Custom"},
		{[]string{"-dx11", "-mumble", "A", "-mumble", "B"}, "A"},
		{[]string{"-mumble", "0"}, DisabledName},
		{[]string{"-mumbleX", "A"}, DefaultName},
	} {
		assert.Equal(t, tc.want, LinkName(tc.args), "%v", tc.args)
	}
}
