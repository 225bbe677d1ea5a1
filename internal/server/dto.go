package server

import "inkwell/internal/domain"

// Request payloads

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type GenerateContentRequest struct {
	Content string `json:"content"`
	Tone    string `json:"tone,omitempty"`
}

type GenerateImageRequest struct {
	Prompt     string `json:"prompt"`
	// Unknown resolutions fall back to the 1024x1024 default.
	Resolution string `json:"resolution,omitempty"`
}

type AnalyzeResumeRequest struct {
	Role       string `json:"role,omitempty"`
	ResumeText string `json:"resume_text"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

// Response payloads

type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type SignUpResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type SignInResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

type GenerationResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	InputContent  string `json:"input_content"`
	OutputContent string `json:"output_content"`
	Type          string `json:"type"`
	Tone          string `json:"tone"`
	CreatedAt     string `json:"created_at" format:"date-time"`
}

type GenerateContentResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Content string              `json:"content"`
	Record  *GenerationResponse `json:"record,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

type ContentHistoryResponse struct {
	Success bool                 `json:"success"`
	Data    []GenerationResponse `json:"data"`
}

type DeletedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ImageResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Prompt    string `json:"prompt"`
	ImageURL  string `json:"image_url"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type GenerateImageResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Image   ImageResponse `json:"image"`
	Warning string        `json:"warning,omitempty"`
}

type ImageHistoryResponse struct {
	Success bool            `json:"success"`
	Data    []ImageResponse `json:"data"`
}

type ResumeReportResponse struct {
	Score           int      `json:"score"`
	MatchPercentage int      `json:"match_percentage"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Improvements    []string `json:"improvements"`
	ATSTips         []string `json:"ats_tips"`
}

type AnalyzeResumeResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    ResumeReportResponse `json:"data"`
	Warning string               `json:"warning,omitempty"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type CreateAPIKeyResponse struct {
	Key    APIKeyResponse `json:"key"`
	Secret string         `json:"secret"`
}

// Conversion helpers

func userResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func generationResponse(g domain.Generation) GenerationResponse {
	return GenerationResponse(g)
}

func mapGenerations(items []domain.Generation) []GenerationResponse {
	out := make([]GenerationResponse, 0, len(items))
	for _, g := range items {
		out = append(out, generationResponse(g))
	}
	return out
}

func imageResponse(img domain.Image) ImageResponse {
	return ImageResponse(img)
}

func mapImages(items []domain.Image) []ImageResponse {
	out := make([]ImageResponse, 0, len(items))
	for _, img := range items {
		out = append(out, imageResponse(img))
	}
	return out
}

func resumeReportResponse(r domain.ResumeReport) ResumeReportResponse {
	return ResumeReportResponse{
		Score:           r.Score,
		MatchPercentage: r.MatchPercentage,
		Strengths:       nonNilSlice(r.Strengths),
		Weaknesses:      nonNilSlice(r.Weaknesses),
		Improvements:    nonNilSlice(r.Improvements),
		ATSTips:         nonNilSlice(r.ATSTips),
	}
}

func apiKeyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt}
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
