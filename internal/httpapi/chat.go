package httpapi

import "net/http"

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	ArticleID      string `json:"article_id"`
	Message        string `json:"message"`
}

func (h *handler) startChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	reply, err := h.chat.Start(r.Context(), req.ArticleID, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

func (h *handler) chatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	reply, err := h.chat.Continue(r.Context(), req.ConversationID, req.ArticleID, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}
