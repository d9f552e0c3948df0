package extract

import "testing"

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "hello world", "hello world"},
		{"sound cues stripped", "[Music] welcome back [Applause] everyone", "welcome back everyone"},
		{"parentheticals stripped", "so (inaudible) we begin", "so we begin"},
		{"entities decoded", "Tom &amp; Jerry &gt; cats &#39;n mice", "Tom & Jerry > cats 'n mice"},
		{"whitespace collapsed", "one\n\ntwo\t three   four", "one two three four"},
		{"empty", "", ""},
		{"only artifacts", "[Music] (applause)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTranscript(tt.input); got != tt.want {
				t.Errorf("CleanTranscript(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanSubtitleFile(t *testing.T) {
	vtt := `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:02.500
hello and <c>welcome</c>

00:00:02.500 --> 00:00:05.000
hello and welcome

00:00:05.000 --> 00:00:08.000
to the show
`
	got := CleanSubtitleFile(vtt)
	want := "hello and welcome to the show"
	if got != want {
		t.Errorf("CleanSubtitleFile() = %q, want %q", got, want)
	}
}

func TestCleanSubtitleFileShortTimestamps(t *testing.T) {
	vtt := `WEBVTT

00:05.000 --> 00:08.000
short cues still count

01:08.000 --> 01:12.000
as timing lines
`
	got := CleanSubtitleFile(vtt)
	want := "short cues still count as timing lines"
	if got != want {
		t.Errorf("CleanSubtitleFile() = %q, want %q", got, want)
	}
}

func TestCleanSubtitleFileSRT(t *testing.T) {
	srt := `1
00:00:00,000 --> 00:00:02,500
first line

2
00:00:02,500 --> 00:00:05,000
second line
`
	got := CleanSubtitleFile(srt)
	want := "first line second line"
	if got != want {
		t.Errorf("CleanSubtitleFile() = %q, want %q", got, want)
	}
}
