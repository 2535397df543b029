package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
	"github.com/dmitrijs2005/wellkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	msgRecordNotFound = "Health record not found"
	msgReportNotFound = "Medical report not found"
	msgUserNotFound   = "User not found"
)

type handlers struct {
	users       UserService
	records     RecordService
	attachments AttachmentStore
	metrics     *metrics.Metrics
	logger      logging.Logger
	development bool
}

type messageResponse struct {
	Message string `json:"message"`
}

type recordResponse struct {
	Message string               `json:"message"`
	Record  *models.HealthRecord `json:"record"`
}

type loginUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running"})
}

func (h *handlers) register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	if _, err := h.users.Register(c.Request.Context(), in); err != nil {
		h.writeError(c, err, msgUserNotFound)
		return
	}

	c.JSON(http.StatusCreated, messageResponse{Message: "User created successfully"})
}

func (h *handlers) login(c *gin.Context) {
	var in services.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.users.Login(c.Request.Context(), in)
	h.metrics.RecordLogin(err == nil)
	if err != nil {
		h.writeError(c, err, msgUserNotFound)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token: res.Token,
		User:  loginUser{ID: res.User.ID, FullName: res.User.FullName, Email: res.User.Email},
	})
}

func (h *handlers) profile(c *gin.Context) {
	u, err := h.users.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err, msgUserNotFound)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *handlers) createRecord(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	in, ref, err := h.readRecordRequest(c, userID)
	if err != nil {
		h.writeError(c, err, msgRecordNotFound)
		return
	}

	rec, err := h.records.Create(ctx, userID, in, ref)
	if err != nil {
		h.writeError(c, err, msgRecordNotFound)
		return
	}

	c.JSON(http.StatusCreated, recordResponse{Message: "Health record created successfully", Record: rec})
}

func (h *handlers) listRecords(c *gin.Context) {
	recs, err := h.records.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err, msgRecordNotFound)
		return
	}
	if recs == nil {
		recs = []*models.HealthRecord{}
	}
	c.JSON(http.StatusOK, recs)
}

func (h *handlers) getRecord(c *gin.Context) {
	rec, err := h.records.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, msgRecordNotFound)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) updateRecord(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	in, ref, err := h.readRecordRequest(c, userID)
	if err != nil {
		h.writeError(c, err, msgRecordNotFound)
		return
	}

	rec, err := h.records.Update(ctx, userID, c.Param("id"), in, ref)
	if err != nil {
		h.writeError(c, err, msgRecordNotFound)
		return
	}

	c.JSON(http.StatusOK, recordResponse{Message: "Health record updated successfully", Record: rec})
}

func (h *handlers) deleteRecord(c *gin.Context) {
	if err := h.records.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		h.writeError(c, err, msgRecordNotFound)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Health record deleted successfully"})
}

func (h *handlers) downloadReport(c *gin.Context) {
	rep, err := h.records.Report(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, msgReportNotFound)
		return
	}
	defer rep.Body.Close()

	c.DataFromReader(http.StatusOK, rep.Size, rep.ContentType, rep.Body, map[string]string{
		"Content-Disposition": contentDisposition(rep.Name),
	})
}
