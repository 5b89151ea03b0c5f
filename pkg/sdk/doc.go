// Package cie10rag embeds the ICD-10-ES retrieval engine in a Go program
// without running the HTTP service.
//
// The client loads the diagnosis and procedure catalogs, fits the TF-IDF
// vocabulary and serves searches from memory:
//
//	client, _ := cie10rag.New(ctx,
//	    cie10rag.WithDiagnosesFile("data/cie10_diagnoses.csv"),
//	    cie10rag.WithProceduresFile("data/cie10_procedures.csv"),
//	)
//
//	res, _ := client.Search(ctx, "neumonia bacteriana", 10)
//	for _, h := range res.Hits {
//	    fmt.Println(h.Code, h.Similarity)
//	}
//
// # Code proposals
//
// Code requires a Generator. Any language model backend can be plugged in:
//
//	client, _ := cie10rag.New(ctx,
//	    cie10rag.WithDiagnosesFile("data/cie10_diagnoses.csv"),
//	    cie10rag.WithGenerator(myGenerator),
//	)
//	res, _ := client.Code(ctx, cie10rag.CodeRequest{Diagnosis: "diabetes tipo 2"})
//	fmt.Println(res.Primary.Code)
package cie10rag
