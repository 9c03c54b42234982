package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const defaultUpsertBatchSize = 256

// moviePointNamespace scopes point IDs derived from movie titles.
var moviePointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/timmy/cinematch/movies"))

// QdrantConnectionConfig holds configuration for Qdrant connection
type QdrantConnectionConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS          bool   // Explicitly enable TLS without API Key
	VectorDimension int
	BatchSize       int
}

// apiKeyInterceptor creates a unary interceptor that adds API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// QdrantRepository publishes movie vectors to a Qdrant collection.
type QdrantRepository struct {
	conn            *grpc.ClientConn
	pointsClient    pb.PointsClient
	collectClient   pb.CollectionsClient
	collectionName  string
	vectorDimension int
	batchSize       int
}

// NewQdrantRepository creates a new QdrantRepository
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API Key)
func NewQdrantRepository(cfg *QdrantConnectionConfig) (*QdrantRepository, error) {
	if cfg.VectorDimension <= 0 {
		return nil, fmt.Errorf("qdrant: vector dimension must be positive, got %d", cfg.VectorDimension)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultUpsertBatchSize
	}

	var opts []grpc.DialOption
	if cfg.UseTLS || cfg.APIKey != "" {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantRepository{
		conn:            conn,
		pointsClient:    pb.NewPointsClient(conn),
		collectClient:   pb.NewCollectionsClient(conn),
		collectionName:  cfg.Collection,
		vectorDimension: cfg.VectorDimension,
		batchSize:       batchSize,
	}, nil
}

// Close closes the gRPC connection
func (r *QdrantRepository) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist and checks the vector size
// of an existing one.
func (r *QdrantRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok && size != uint64(r.vectorDimension) {
			return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, r.vectorDimension)
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	vectors := info.GetConfig().GetParams().GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}
	if single := vectors.GetParams(); single != nil && single.GetSize() > 0 {
		return single.GetSize(), true
	}
	for _, params := range vectors.GetParamsMap().GetMap() {
		if params.GetSize() > 0 {
			return params.GetSize(), true
		}
	}
	return 0, false
}

// MoviePoint is one movie vector with the payload stored alongside it.
type MoviePoint struct {
	Row    int
	Title  string
	Genre  string
	Vector []float32
}

// MoviePointID derives a stable point ID from the display title, which is unique in the corpus.
func MoviePointID(title string) string {
	return uuid.NewSHA1(moviePointNamespace, []byte(title)).String()
}

func toPointStruct(p MoviePoint, fingerprint string) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: MoviePointID(p.Title)},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: p.Vector},
			},
		},
		Payload: map[string]*pb.Value{
			"title":       {Kind: &pb.Value_StringValue{StringValue: p.Title}},
			"genre":       {Kind: &pb.Value_StringValue{StringValue: p.Genre}},
			"row":         {Kind: &pb.Value_IntegerValue{IntegerValue: int64(p.Row)}},
			"fingerprint": {Kind: &pb.Value_StringValue{StringValue: fingerprint}},
		},
	}
}

// UpsertMovies writes points in batches, tagging each with the vector-set fingerprint.
// It returns the number of points written.
func (r *QdrantRepository) UpsertMovies(ctx context.Context, fingerprint string, points []MoviePoint) (int, error) {
	wait := true
	written := 0
	for start := 0; start < len(points); start += r.batchSize {
		end := min(start+r.batchSize, len(points))

		batch := make([]*pb.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			if len(p.Vector) != r.vectorDimension {
				return written, fmt.Errorf("movie %q has vector size %d, expected %d", p.Title, len(p.Vector), r.vectorDimension)
			}
			batch = append(batch, toPointStruct(p, fingerprint))
		}

		_, err := r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: r.collectionName,
			Wait:           &wait,
			Points:         batch,
		})
		if err != nil {
			return written, fmt.Errorf("failed to upsert points %d-%d: %w", start, end-1, err)
		}
		written += len(batch)
	}
	return written, nil
}

// staleFilter matches points published from any other vector set.
func staleFilter(fingerprint string) *pb.Filter {
	return &pb.Filter{
		MustNot: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "fingerprint",
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{Keyword: fingerprint},
						},
					},
				},
			},
		},
	}
}

// DeleteStale removes points whose fingerprint differs from the current one, i.e. movies
// that left the corpus since an earlier publication.
func (r *QdrantRepository) DeleteStale(ctx context.Context, fingerprint string) error {
	wait := true
	_, err := r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{Filter: staleFilter(fingerprint)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete stale points: %w", err)
	}
	return nil
}
