package runtime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBufferKeepsLastLines(t *testing.T) {
	b := NewLogBuffer(3)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(b, "line %d\n", i)
	}

	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, b.Last(10))
	assert.Equal(t, []string{"line 5"}, b.Last(1))
}

func TestLogBufferJoinsPartialWrites(t *testing.T) {
	b := NewLogBuffer(5)
	b.Write([]byte("hel"))
	assert.Empty(t, b.Last(5))

	b.Write([]byte("lo\nwor"))
	b.Write([]byte("ld\n"))
	assert.Equal(t, []string{"hello", "world"}, b.Last(5))
}

func TestLogBufferMinimumCapacity(t *testing.T) {
	b := NewLogBuffer(0)
	b.Write([]byte("a\nb\n"))
	assert.Equal(t, []string{"b"}, b.Last(2))
}
