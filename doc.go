// Package medimatch maps free-text symptom descriptions to catalogued
// medical concepts and assigns an urgency level.
//
// An Assistant opens a BadgerDB database holding the indexed "concepts"
// catalogue and, optionally, a "diseases" catalogue:
//
//	assistant, err := medimatch.Open("medimatch.db")
//	if err != nil {
//		return err
//	}
//	defer assistant.Close()
//
//	report, err := assistant.Predict(ctx, "I have chest pain and sweating")
//
// Catalogues are built with the indexing package or the medimatch command.
// Inference itself lives in the inference package and can be used directly
// with an in-memory catalog.Store.
package medimatch
