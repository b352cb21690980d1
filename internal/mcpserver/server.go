// Package mcpserver exposes the analysis pipeline over the Model Context
// Protocol so that agent hosts can drive workflows through stdio. Progress
// output goes to stderr; stdout carries only protocol frames.
package mcpserver

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/azournas/art-agent/internal/inspect"
	"github.com/azournas/art-agent/internal/pipeline"
	"github.com/azournas/art-agent/internal/resources"
)

// Version is the protocol-visible server version.
const Version = "1.0.0"

// resourceScheme prefixes the URIs of the served reference texts.
const resourceScheme = "art://"

// Server wraps an MCP server bound to one pipeline runner and resource
// repository.
type Server struct {
	mcp       *mcp.Server
	runner    *pipeline.Runner
	resources *resources.Repository
}

// AnalyzeArgs are the inputs of the run_art_analysis tool.
type AnalyzeArgs struct {
	Prompt          string `json:"prompt" jsonschema:"Natural-language description of the analysis to perform."`
	SecondaryPrompt string `json:"secondary_prompt,omitempty" jsonschema:"Optional follow-up analysis that builds on the primary generated code."`
	DataPath        string `json:"data_path" jsonschema:"Path to the input CSV data file."`
	OutputDir       string `json:"output_dir" jsonschema:"Directory where generated files are written."`
}

// InstructionsArgs are the inputs of the generate_robotic_instructions tool.
type InstructionsArgs struct {
	Prompt     string `json:"prompt" jsonschema:"Natural-language description of the protocol to generate."`
	ProjectDir string `json:"project_dir" jsonschema:"Project directory whose layout is summarized for the model."`
	OutputDir  string `json:"output_dir" jsonschema:"Directory where generated files are written."`
	SamplePath string `json:"sample_path" jsonschema:"CSV whose first rows are included in the prompt."`
}

// QuestionArgs are the inputs of the answer_question tool.
type QuestionArgs struct {
	Question string `json:"question" jsonschema:"The question to answer from the toolkit documentation and source."`
}

// TemplateArgs are the inputs of the create_template_csv tool.
type TemplateArgs struct {
	Description string `json:"description" jsonschema:"Description of the experiment the CSV template is for."`
	OutputPath  string `json:"output_path" jsonschema:"Path where the CSV template file is written."`
}

// TreeArgs are the inputs of the directory_structure tool.
type TreeArgs struct {
	Path string `json:"path" jsonschema:"Directory whose layout to summarize."`
}

// New assembles the MCP server around a runner and the resource repository.
func New(runner *pipeline.Runner, repo *resources.Repository) *Server {
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "art-agent",
			Version: Version,
		}, nil),
		runner:    runner,
		resources: repo,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdio until the context is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "run_art_analysis",
		Description: "Run a full analysis workflow: generate Python code for the given " +
			"prompt and data file, save it, and execute it in the sandbox. Returns an " +
			"execution report. An optional secondary prompt chains a dependent analysis " +
			"onto the primary stage's code.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args AnalyzeArgs) (*mcp.CallToolResult, any, error) {
		report := s.runner.Run(ctx, pipeline.Goal{
			Prompt:          args.Prompt,
			SecondaryPrompt: args.SecondaryPrompt,
			DataPath:        args.DataPath,
			OutputDir:       args.OutputDir,
		})
		return textResult(report), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "generate_robotic_instructions",
		Description: "Generate liquid-handling robot instructions from the output files of a " +
			"prior analysis stage, save them as a Python script, and execute it in the sandbox.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args InstructionsArgs) (*mcp.CallToolResult, any, error) {
		report := s.runner.GenerateInstructions(ctx, pipeline.InstructionsRequest{
			Prompt:     args.Prompt,
			ProjectDir: args.ProjectDir,
			OutputDir:  args.OutputDir,
			SamplePath: args.SamplePath,
		})
		return textResult(report), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "answer_question",
		Description: "Answer a question about the toolkit using its documentation and reference source.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args QuestionArgs) (*mcp.CallToolResult, any, error) {
		return textResult(s.runner.AnswerQuestion(ctx, args.Question)), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_template_csv",
		Description: "Create a CSV template file matching the expected input format for an experiment.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args TemplateArgs) (*mcp.CallToolResult, any, error) {
		return textResult(s.runner.CreateTemplateCSV(ctx, args.OutputPath, args.Description)), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "directory_structure",
		Description: "Summarize the file layout of a directory as an indented tree.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, args TreeArgs) (*mcp.CallToolResult, any, error) {
		tree, err := inspect.TreeString(args.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read directory %q: %w", args.Path, err)
		}
		return textResult(tree), nil, nil
	})
}

func (s *Server) registerResources() {
	for _, id := range resources.IDs() {
		fileName := resources.FileName(id)
		mimeType := mime.TypeByExtension(filepath.Ext(fileName))
		if mimeType == "" {
			mimeType = "text/plain"
		}
		uri := resourceScheme + string(id)

		s.mcp.AddResource(&mcp.Resource{
			URI:      uri,
			Name:     string(id),
			Title:    fileName,
			MIMEType: mimeType,
		}, func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.resources.Get(id)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      uri,
					MIMEType: mimeType,
					Text:     text,
				}},
			}, nil
		})
	}
}
