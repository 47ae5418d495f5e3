package httpapi

import (
	"github.com/geelink/docingest/internal/ingesterr"
	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/source"
)

// BuildSource translates a single ingestRequest into the matching Source
// implementation (spec.md §6's source_type enum: text, uri, base64, web).
func (s *Server) BuildSource(req ingestRequest) (pipeline.Source, error) {
	switch req.SourceType {
	case sourceTypeText:
		return source.Text{Content: req.Text, UserMetadata: req.Metadata}, nil
	case sourceTypeURI:
		return source.URI{Value: req.URI, UserMetadata: req.Metadata}, nil
	case sourceTypeBase64:
		return source.Base64{Content: req.Base64Content, UserMetadata: req.Metadata}, nil
	case sourceTypeWeb:
		return source.Web{
			StartURL:          req.URI,
			MaxDepth:          metaInt(req.Metadata, "max_depth", 2),
			AllowedExtensions: allowedExtensionSet(metaStringSlice(req.Metadata, "allowed_extensions")),
			AllowSubdomains:   metaBool(req.Metadata, "allow_subdomains", true),
			RestrictToPath:    metaBool(req.Metadata, "restrict_to_path", false),
			RespectRobots:     metaBool(req.Metadata, "respect_robots", true),
			Logger:            s.Logger,
		}, nil
	default:
		return nil, &ingesterr.InvalidInput{Reason: "unsupported source_type: " + req.SourceType}
	}
}
