package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ocp-installer-helper/internal/handler"
)

type Handlers struct {
	Mirror    *handler.MirrorHandler
	Installer *handler.InstallerHandler
	Form      *handler.FormHandler
	Stream    *handler.StreamHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers, gatherer prometheus.Gatherer) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	r.POST("/upload-nodes", h.Installer.UploadNodes)
	r.POST("/generate-ssh-key", h.Installer.GenerateSSHKey)
	r.POST("/generate-install-config", h.Installer.GenerateInstallConfig)
	r.POST("/generate-agent-config", h.Installer.GenerateAgentConfig)

	api := r.Group("/api")
	{
		api.GET("/load-cluster-info", h.Installer.LoadClusterInfo)
		api.GET("/get-ssh-key/:name", h.Installer.GetSSHKey)
		api.POST("/configure", h.Installer.Configure)

		api.GET("/get-ocp-versions", h.Mirror.Versions)
		api.POST("/execute-command", h.Mirror.ExecuteCommand)
		api.POST("/list-operators", h.Mirror.ListOperators)
		api.POST("/generate-imageset", h.Mirror.GenerateImageSet)
		api.POST("/apply-pull-secret", h.Mirror.ApplyPullSecret)
		api.POST("/mirror-pull-secret", h.Mirror.MirrorPullSecret)
		api.POST("/run-mirror", h.Mirror.RunMirror)
		api.GET("/get-mirror-ca", h.Mirror.MirrorCA)

		mirror := api.Group("/mirror")
		{
			mirror.GET("/progress/:taskId", h.Mirror.Progress)
			mirror.GET("/stream/:taskId", h.Stream.Stream)
		}

		sessions := api.Group("/form/sessions")
		{
			sessions.POST("", h.Form.CreateSession)
			sessions.GET("/:id", h.Form.State)
			sessions.DELETE("/:id", h.Form.DeleteSession)
			sessions.POST("/:id/nodes", h.Form.AddNode)
			sessions.DELETE("/:id/nodes/:index", h.Form.RemoveNode)
			sessions.PUT("/:id/nodes/:index/role", h.Form.SetRole)
			sessions.PUT("/:id/nodes/:index/hostname", h.Form.SetHostname)
			sessions.PUT("/:id/nodes/:index/interface-type", h.Form.SetInterfaceType)
			sessions.GET("/:id/nodes/:index/candidates", h.Form.Candidates)
			sessions.POST("/:id/build", h.Form.Build)
		}
	}
}
