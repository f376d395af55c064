// Package generated исполняет GraphQL-операции схемы schema.graphqls поверх
// рантайма gqlgen. Корневые поля уходят в резолверы, ответ резолвера
// проецируется на выбранные поля по типам схемы.
package generated

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/errcode"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/feed"
)

//go:embed "schema.graphqls"
var sourcesFS embed.FS

func sourceData(filename string) string {
	data, err := sourcesFS.ReadFile(filename)
	if err != nil {
		panic(fmt.Sprintf("codegen problem: %s not available", filename))
	}
	return string(data)
}

var parsedSchema = gqlparser.MustLoadSchema(
	&ast.Source{Name: "schema.graphqls", Input: sourceData("schema.graphqls"), BuiltIn: false},
)

var errIntrospection = errors.New("introspection disabled")

type ResolverRoot interface {
	Mutation() MutationResolver
	Query() QueryResolver
}

type MutationResolver interface {
	CreatePost(ctx context.Context, post string) (*domain.Post, error)
	ToggleLike(ctx context.Context, postID string, postAuthorID *string) (*feed.LikeResult, error)
	EditPost(ctx context.Context, id string, post string) (bool, error)
	DeletePost(ctx context.Context, id string, kind *string) (bool, error)
	CreateComment(ctx context.Context, postID string, commentText string, postAuthorID *string) (*domain.Comment, error)
	EditComment(ctx context.Context, id string, commentText string) (bool, error)
}

type QueryResolver interface {
	Feed(ctx context.Context, mode *string) ([]*domain.PostView, error)
	Post(ctx context.Context, id string) (*domain.PostView, error)
	PostExists(ctx context.Context, id string) (bool, error)
	Comments(ctx context.Context, postID string) ([]*domain.CommentView, error)
	Notifications(ctx context.Context) ([]*domain.Notification, error)
	MyCategory(ctx context.Context) (string, error)
}

type Config struct {
	Resolvers ResolverRoot
}

// NewExecutableSchema creates an ExecutableSchema from the ResolverRoot interface.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{resolvers: cfg.Resolvers}
}

type executableSchema struct {
	resolvers ResolverRoot
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

// Complexity для всех полей считается по умолчанию.
func (e *executableSchema) Complexity(typeName, field string, childComplexity int, rawArgs map[string]interface{}) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)

	var root *ast.Definition
	switch opCtx.Operation.Operation {
	case ast.Query:
		root = parsedSchema.Query
	case ast.Mutation:
		root = parsedSchema.Mutation
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false

		ec := executionContext{opCtx: opCtx, resolvers: e.resolvers}
		data := ec.execRoot(ctx, root, opCtx.Operation.SelectionSet)

		var buf bytes.Buffer
		data.MarshalGQL(&buf)
		return &graphql.Response{Data: buf.Bytes()}
	}
}

type executionContext struct {
	opCtx     *graphql.OperationContext
	resolvers ResolverRoot
}

// execRoot выполняет корневые поля по порядку. Мутации тем самым идут
// последовательно, как требует GraphQL.
func (ec *executionContext) execRoot(ctx context.Context, root *ast.Definition, sel ast.SelectionSet) graphql.Marshaler {
	fields := graphql.CollectFields(ec.opCtx, sel, []string{root.Name})
	out := graphql.NewFieldSet(fields)
	invalid := false

	for i, field := range fields {
		out.Values[i] = graphql.Null

		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString(root.Name)
			continue
		case "__schema", "__type":
			graphql.AddError(ctx, &gqlerror.Error{
				Err:        errIntrospection,
				Message:    errIntrospection.Error(),
				Path:       ast.Path{ast.PathName(field.Alias)},
				Extensions: map[string]interface{}{"code": errcode.ValidationFailed},
			})
			continue
		}

		val, err := ec.resolveRoot(ctx, root.Name, field.Name, field.ArgumentMap(ec.opCtx.Variables))
		if err == nil {
			var generic any
			if generic, err = toGeneric(val); err == nil {
				out.Values[i], err = ec.marshalValue(generic, field.Definition.Type, field.Selections)
			}
		}
		if err != nil {
			addError(ctx, field.Alias, err)
			out.Values[i] = graphql.Null
			if field.Definition.Type.NonNull {
				invalid = true
			}
		}
	}

	if invalid {
		return graphql.Null
	}
	return out
}

func (ec *executionContext) resolveRoot(ctx context.Context, typeName, field string, args map[string]interface{}) (any, error) {
	q := ec.resolvers.Query()
	m := ec.resolvers.Mutation()

	switch typeName + "." + field {
	case "Query.feed":
		return q.Feed(ctx, argOptString(args, "mode"))
	case "Query.post":
		return q.Post(ctx, argString(args, "id"))
	case "Query.postExists":
		return q.PostExists(ctx, argString(args, "id"))
	case "Query.comments":
		return q.Comments(ctx, argString(args, "postId"))
	case "Query.notifications":
		return q.Notifications(ctx)
	case "Query.myCategory":
		return q.MyCategory(ctx)

	case "Mutation.createPost":
		return m.CreatePost(ctx, argString(args, "post"))
	case "Mutation.toggleLike":
		return m.ToggleLike(ctx, argString(args, "postId"), argOptString(args, "postAuthorId"))
	case "Mutation.editPost":
		return m.EditPost(ctx, argString(args, "id"), argString(args, "post"))
	case "Mutation.deletePost":
		return m.DeletePost(ctx, argString(args, "id"), argOptString(args, "kind"))
	case "Mutation.createComment":
		return m.CreateComment(ctx, argString(args, "postId"), argString(args, "commentText"), argOptString(args, "postAuthorId"))
	case "Mutation.editComment":
		return m.EditComment(ctx, argString(args, "id"), argString(args, "commentText"))
	}
	return nil, fmt.Errorf("field %s.%s is not implemented", typeName, field)
}

// toGeneric переводит ответ резолвера в дерево map/slice по его json-тегам.
// Имена полей схемы совпадают с json-тегами доменных типов, время уже
// приходит строкой RFC3339Nano, как его отдаёт graphql.MarshalTime.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (ec *executionContext) marshalValue(v any, typ *ast.Type, sel ast.SelectionSet) (graphql.Marshaler, error) {
	if v == nil {
		if !typ.NonNull {
			return graphql.Null, nil
		}
		// Пустой срез из резолвера приходит как nil.
		if typ.Elem != nil {
			return graphql.Array{}, nil
		}
		return nil, fmt.Errorf("must not be null: %s", typ.String())
	}

	if typ.Elem != nil {
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list for %s, got %T", typ.String(), v)
		}
		arr := make(graphql.Array, 0, len(items))
		for _, item := range items {
			m, err := ec.marshalValue(item, typ.Elem, sel)
			if err != nil {
				return nil, err
			}
			arr = append(arr, m)
		}
		return arr, nil
	}

	def := parsedSchema.Types[typ.NamedType]
	if def == nil {
		return nil, fmt.Errorf("unknown type %s", typ.NamedType)
	}

	switch def.Kind {
	case ast.Scalar, ast.Enum:
		return marshalScalar(v, def.Name)
	case ast.Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object for %s, got %T", def.Name, v)
		}
		fields := graphql.CollectFields(ec.opCtx, sel, []string{def.Name})
		out := graphql.NewFieldSet(fields)
		for i, field := range fields {
			if field.Name == "__typename" {
				out.Values[i] = graphql.MarshalString(def.Name)
				continue
			}
			m, err := ec.marshalValue(obj[field.Name], field.Definition.Type, field.Selections)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", def.Name, field.Name, err)
			}
			out.Values[i] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported kind %s for %s", def.Kind, def.Name)
}

func marshalScalar(v any, name string) (graphql.Marshaler, error) {
	switch name {
	case "Int":
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected Int, got %T", v)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, err
		}
		return graphql.MarshalInt64(i), nil
	case "Boolean":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected Boolean, got %T", v)
		}
		return graphql.MarshalBoolean(b), nil
	case "String", "ID", "Time":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected %s, got %T", name, v)
		}
		return graphql.MarshalString(s), nil
	}
	return graphql.MarshalAny(v), nil
}

// addError кладёт ошибку поля в ответ. Код по ошибке назначает error presenter сервера.
func addError(ctx context.Context, alias string, err error) {
	graphql.AddError(ctx, &gqlerror.Error{
		Err:     err,
		Message: err.Error(),
		Path:    ast.Path{ast.PathName(alias)},
	})
}

func argString(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func argOptString(args map[string]interface{}, name string) *string {
	s, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &s
}
