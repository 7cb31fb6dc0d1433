package testsupport

// ImportDocument returns a small but complete detector export: a 30 minute
// episode with a three-segment layout and two voice commands, the first
// carrying transcript words and the second relying on fallback prompt text.
func ImportDocument() []byte {
	return []byte(`{
  "title": "Signal Hill 014",
  "duration_s": 1800,
  "segments": [
    {"id": "seg-intro", "label": "Cold Open", "type": "intro", "start": 0, "end": 60},
    {"id": "seg-main", "label": "Main", "type": "main", "start": 60, "end": 1740},
    {"id": "seg-outro", "label": "Outro", "type": "outro", "start": 1740, "end": 1800}
  ],
  "detections": [
    {
      "id": "cmd-jingle",
      "start_s": 300.5,
      "snippet_start_s": 295,
      "snippet_end_s": 325,
      "prompt_text": "play the jingle",
      "words": [
        {"word": "play", "start": 300.5, "end": 301.0},
        {"word": "the", "start": 301.0, "end": 301.2},
        {"word": "jingle", "start": 301.2, "end": 301.9}
      ]
    },
    {
      "id": "cmd-promo",
      "start_s": 900,
      "default_end_s": 8,
      "prompt_text": "run the promo spot"
    }
  ]
}`)
}
