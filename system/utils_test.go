package system

import (
	"testing"

	. "github.com/franela/goblin"
)

func Test_Utils(t *testing.T) {
	g := Goblin(t)

	g.Describe("FirstNotEmpty", func() {
		g.It("should return the first non-empty value", func() {
			g.Assert(FirstNotEmpty("", "memory", "unix")).Equal("memory")
		})

		g.It("should return an empty string when every value is empty", func() {
			g.Assert(FirstNotEmpty("", "")).Equal("")
			g.Assert(FirstNotEmpty()).Equal("")
		})
	})

	g.Describe("SplitList", func() {
		g.It("should trim values and drop empty ones", func() {
			g.Assert(SplitList(" readable, ,writable,")).Equal([]string{"readable", "writable"})
		})

		g.It("should return nil for an empty list", func() {
			g.Assert(SplitList("") == nil).IsTrue()
		})
	})

	g.Describe("FormatBytes", func() {
		g.It("should format bytes below one kibibyte as is", func() {
			g.Assert(FormatBytes(int64(512))).Equal("512 B")
		})

		g.It("should scale larger values", func() {
			g.Assert(FormatBytes(int64(1536))).Equal("1.5 KiB")
			g.Assert(FormatBytes(int64(5 * 1024 * 1024))).Equal("5.0 MiB")
		})
	})
}
