package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStderrLogSplitsLinesAcrossWrites(t *testing.T) {
	l := &stderrLog{}
	l.Write([]byte("first li"))
	l.Write([]byte("ne\nsecond line\npart"))
	l.Write([]byte("ial\n"))

	assert.Equal(t, "first line\nsecond line\npartial", l.Tail())
}

func TestStderrLogTailIsBounded(t *testing.T) {
	l := &stderrLog{}
	for i := 0; i < tailLines*2; i++ {
		l.Write([]byte("x\n"))
	}
	assert.Len(t, l.tail, tailLines)
}

func TestMatchesHardwareFailure(t *testing.T) {
	cases := []struct {
		name  string
		lines string
		match bool
	}{
		{
			"session error code",
			"[h264_videotoolbox @ 0x7f8] Error: cannot create compression session: -12903\n",
			true,
		},
		{
			"prepare failure",
			"h264_videotoolbox: cannot prepare encoder\n",
			true,
		},
		{
			"open failure",
			"Error while opening encoder for output stream h264_videotoolbox\n",
			true,
		},
		{
			"unrelated error",
			"Output file out.mp4: permission denied\n",
			false,
		},
		{
			"signature without encoder name",
			"cannot create compression session\n",
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := &stderrLog{}
			l.Write([]byte(tc.lines))
			assert.Equal(t, tc.match, l.MatchesHardwareFailure("h264_videotoolbox"))
		})
	}
}
