package rest

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
)

// sniffLen is the number of bytes http.DetectContentType considers.
const sniffLen = 512

func (s *Server) health(c *gin.Context) {
	if err := s.inspections.Ping(c.Request.Context()); err != nil {
		s.logger.Error(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listCards(c *gin.Context) {
	cards, err := s.catalog.ListCards(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCardTemplates(cards))
}

func (s *Server) listInspections(c *gin.Context) {
	insps, err := s.inspections.List(c.Request.Context(), c.Query("corretor_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInspections(insps))
}

func (s *Server) getInspection(c *gin.Context) {
	insp, err := s.inspections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, errorBody{Error: "inspection not found"})
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInspection(insp))
}

func (s *Server) createInspection(c *gin.Context) {
	var req createInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "malformed JSON body"})
		return
	}

	insp, err := s.inspections.Create(c.Request.Context(), models.NewInspection{
		PropertyID:    req.PropertyID,
		CorretorID:    req.CorretorID,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInspection(insp))
}

func (s *Server) updateInspection(c *gin.Context) {
	var req updateInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "malformed JSON body"})
		return
	}

	insp, err := s.inspections.Update(c.Request.Context(), req.toPatch())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, errorBody{Error: "inspection not found"})
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInspection(insp))
}

func (s *Server) uploadPhoto(c *gin.Context) {
	if s.maxUploadSize > 0 {
		// room for the form fields and multipart framing
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadSize+1<<20)
	}

	header, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, errorBody{Error: "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, errorBody{Error: "no file provided"})
		return
	}

	file, err := header.Open()
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer file.Close()

	mimeType, err := detectMIME(header, file)
	if err != nil {
		s.writeError(c, err)
		return
	}

	photo, err := s.photos.Upload(c.Request.Context(), models.PhotoUpload{
		InspectionID: c.PostForm("inspection_id"),
		CardID:       c.PostForm("card_id"),
		FileName:     header.Filename,
		MimeType:     mimeType,
		Size:         header.Size,
	}, file)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, errorBody{Error: "inspection not found"})
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, uploadResponse{ID: photo.ID, URL: photo.URL, FileName: photo.FileName})
}

// detectMIME trusts the part's Content-Type unless it is missing or generic,
// in which case the content is sniffed and the file rewound.
func detectMIME(header *multipart.FileHeader, file multipart.File) (string, error) {
	ct := header.Header.Get("Content-Type")
	if ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
