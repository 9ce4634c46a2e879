package http

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

func bindPaneParam(c *gin.Context, pane *int) error {
	parsed, err := strconv.Atoi(c.Param("pane"))
	if err != nil {
		return fmt.Errorf("invalid pane index %q", c.Param("pane"))
	}
	*pane = parsed
	return nil
}
