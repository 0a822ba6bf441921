package server

import (
	"fmt"

	"github.com/alnah/go-chunkscribe/internal/audio"
	"github.com/alnah/go-chunkscribe/internal/media"
	"github.com/alnah/go-chunkscribe/internal/session"
	"github.com/alnah/go-chunkscribe/internal/summarize"
)

type chunkView struct {
	ID       int          `json:"id"`
	Label    string       `json:"label"`
	Start    float64      `json:"start"`
	End      float64      `json:"end"`
	Size     int          `json:"size"`
	FileName string       `json:"fileName"`
	AudioURL string       `json:"audioUrl"`
	Text     string       `json:"text"`
	Status   audio.Status `json:"status"`
}

func newChunkView(c audio.Chunk) chunkView {
	return chunkView{
		ID:       c.ID,
		Label:    c.Label(),
		Start:    c.Start.Seconds(),
		End:      c.End.Seconds(),
		Size:     c.Size(),
		FileName: c.FileName,
		AudioURL: fmt.Sprintf("/api/audio/%s", c.Handle),
		Text:     c.Text,
		Status:   c.Status,
	}
}

type sessionView struct {
	File           *session.FileInfo `json:"file"`
	Outcome        media.Outcome     `json:"outcome,omitempty"`
	Chunks         []chunkView       `json:"chunks"`
	ChunkSizeMB    float64           `json:"chunkSizeMB"`
	ChunkSizeInput string            `json:"chunkSizeInput"`
	MinChunkSizeMB float64           `json:"minChunkSizeMB"`
	Model          string            `json:"modelName"`
	Models         []string          `json:"models"`
	Summary        string            `json:"summary"`
	Phase          session.Phase     `json:"phase"`
	Progress       float64           `json:"progress"`
	Transcribing   bool              `json:"isGlobalProcessing"`
	Summarizing    bool              `json:"isSummarizing"`
}

func (s *Server) sessionView() sessionView {
	st := s.deps.Session.Snapshot()
	v := sessionView{
		File:           st.File,
		Outcome:        st.Outcome,
		Chunks:         make([]chunkView, 0, len(st.Chunks)),
		ChunkSizeMB:    st.ChunkSizeMB,
		ChunkSizeInput: st.ChunkSizeInput,
		MinChunkSizeMB: s.deps.Session.MinChunkSize(),
		Model:          st.Model,
		Models:         summarize.Models,
		Summary:        st.Summary,
		Phase:          st.Phase,
		Progress:       st.Progress,
		Transcribing:   st.Transcribing,
		Summarizing:    st.Summarizing,
	}
	for _, c := range st.Chunks {
		v.Chunks = append(v.Chunks, newChunkView(c))
	}
	return v
}

func (s *Server) chunkView(id int) (chunkView, bool) {
	for _, c := range s.deps.Session.Snapshot().Chunks {
		if c.ID == id {
			return newChunkView(c), true
		}
	}
	return chunkView{}, false
}
