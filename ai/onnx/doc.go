// Package onnx runs local transformer models through ONNX Runtime.
//
// Classifier wraps a cross-encoder NLI model (for example an XNLI fine-tune
// of XLM-RoBERTa) whose single output holds the contradiction, neutral and
// entailment logits. Embedder wraps a sentence encoder and mean-pools its
// last hidden state into an L2-normalized vector.
//
// Both read a HuggingFace tokenizer.json through github.com/sugarme/tokenizer
// and share one ONNX Runtime environment per process. The environment is
// created by the first constructor and destroyed when the last model is
// closed.
package onnx
